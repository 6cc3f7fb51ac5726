package state

import (
	"math/big"
	"testing"

	"github.com/ethforge/evmcore/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func TestMemoryStateDB_Balance(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)

	if bal := db.GetBalance(addr); bal.Sign() != 0 {
		t.Fatalf("expected zero balance for non-existent account, got %s", bal)
	}

	db.AddBalance(addr, big.NewInt(100))
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", bal)
	}

	db.SubBalance(addr, big.NewInt(30))
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("expected balance 70, got %s", bal)
	}
}

func TestMemoryStateDB_BalanceReturnsCopy(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	db.AddBalance(addr, big.NewInt(100))

	bal := db.GetBalance(addr)
	bal.SetInt64(999)
	if db.GetBalance(addr).Cmp(big.NewInt(100)) != 0 {
		t.Fatal("GetBalance returned a reference instead of a copy")
	}
}

func TestMemoryStateDB_Nonce(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(2)

	if n := db.GetNonce(addr); n != 0 {
		t.Fatalf("expected nonce 0, got %d", n)
	}
	db.SetNonce(addr, 42)
	if n := db.GetNonce(addr); n != 42 {
		t.Fatalf("expected nonce 42, got %d", n)
	}
}

func TestMemoryStateDB_Code(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(3)

	if code := db.GetCode(addr); code != nil {
		t.Fatal("expected nil code for non-existent account")
	}

	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	db.SetCode(addr, code)

	if got := db.GetCode(addr); len(got) != len(code) {
		t.Fatalf("expected code length %d, got %d", len(code), len(got))
	}
	if db.GetCodeSize(addr) != len(code) {
		t.Fatalf("expected code size %d, got %d", len(code), db.GetCodeSize(addr))
	}
	if db.GetCodeHash(addr) == (types.Hash{}) {
		t.Fatal("expected non-zero code hash after setting code")
	}
}

func TestMemoryStateDB_Storage(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(4)
	key := testHash(1)
	val := testHash(2)

	if got := db.GetState(addr, key); got != (types.Hash{}) {
		t.Fatal("expected zero value for unset storage slot")
	}

	db.SetState(addr, key, val)
	if got := db.GetState(addr, key); got != val {
		t.Fatalf("expected %x, got %x", val, got)
	}

	// Uncommitted writes don't show up as committed state.
	if got := db.GetCommittedState(addr, key); got != (types.Hash{}) {
		t.Fatal("expected committed state to still be zero before Finalize")
	}
}

func TestMemoryStateDB_SnapshotRevert(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(5)

	db.AddBalance(addr, big.NewInt(100))
	snap := db.Snapshot()

	db.AddBalance(addr, big.NewInt(50))
	db.SetNonce(addr, 7)
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected balance 150 before revert, got %s", bal)
	}

	db.RevertToSnapshot(snap)
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100 after revert, got %s", bal)
	}
	if n := db.GetNonce(addr); n != 0 {
		t.Fatalf("expected nonce 0 after revert, got %d", n)
	}
}

func TestMemoryStateDB_NestedSnapshots(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(6)

	db.SetNonce(addr, 1)
	outer := db.Snapshot()
	db.SetNonce(addr, 2)
	inner := db.Snapshot()
	db.SetNonce(addr, 3)

	db.RevertToSnapshot(inner)
	if n := db.GetNonce(addr); n != 2 {
		t.Fatalf("expected nonce 2 after inner revert, got %d", n)
	}

	db.RevertToSnapshot(outer)
	if n := db.GetNonce(addr); n != 1 {
		t.Fatalf("expected nonce 1 after outer revert, got %d", n)
	}
}

func TestMemoryStateDB_AccessList(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(7)
	slot := testHash(1)

	if db.AddressInAccessList(addr) {
		t.Fatal("address should not be warm before AddAddressToAccessList")
	}
	db.AddAddressToAccessList(addr)
	if !db.AddressInAccessList(addr) {
		t.Fatal("address should be warm after AddAddressToAccessList")
	}

	addrOk, slotOk := db.SlotInAccessList(addr, slot)
	if !addrOk || slotOk {
		t.Fatalf("expected addrOk=true slotOk=false, got %v %v", addrOk, slotOk)
	}
	db.AddSlotToAccessList(addr, slot)
	addrOk, slotOk = db.SlotInAccessList(addr, slot)
	if !addrOk || !slotOk {
		t.Fatalf("expected both warm after AddSlotToAccessList, got %v %v", addrOk, slotOk)
	}
}

func TestMemoryStateDB_TransientStorage(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(8)
	key := testHash(1)
	val := testHash(2)

	db.SetTransientState(addr, key, val)
	if got := db.GetTransientState(addr, key); got != val {
		t.Fatalf("expected %x, got %x", val, got)
	}

	db.ClearTransientStorage()
	if got := db.GetTransientState(addr, key); got != (types.Hash{}) {
		t.Fatal("expected transient storage cleared")
	}
}

func TestMemoryStateDB_SelfDestructZeroesBalanceImmediately(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(9)
	db.CreateAccount(addr)
	db.AddBalance(addr, big.NewInt(100))

	db.SelfDestruct(addr)
	if !db.HasSelfDestructed(addr) {
		t.Fatal("expected HasSelfDestructed true")
	}
	if bal := db.GetBalance(addr); bal.Sign() != 0 {
		t.Fatalf("expected zero balance immediately after SelfDestruct, got %s", bal)
	}
	// The account is still present; removal is deferred to Finalize.
	if !db.Exist(addr) {
		t.Fatal("account should still exist before Finalize")
	}
}

func TestMemoryStateDB_FinalizeRemovesOnlyAccountsCreatedThisTx(t *testing.T) {
	db := NewMemoryStateDB()
	createdThisTx := testAddr(10)
	preexisting := testAddr(11)

	// preexisting was created "last transaction" -- simulate by creating it
	// and finalizing before the transaction under test begins.
	db.CreateAccount(preexisting)
	db.Finalize()

	db.CreateAccount(createdThisTx)
	db.SelfDestruct(createdThisTx)
	db.SelfDestruct(preexisting)

	db.Finalize()

	if db.Exist(createdThisTx) {
		t.Fatal("account created and destroyed in the same tx should be removed")
	}
	if !db.Exist(preexisting) {
		t.Fatal("account destroyed but created in an earlier tx should survive Finalize")
	}
	if bal := db.GetBalance(preexisting); bal.Sign() != 0 {
		t.Fatalf("surviving self-destructed account should still have zero balance, got %s", bal)
	}
}

func TestMemoryStateDB_Empty(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(12)

	if !db.Empty(addr) {
		t.Fatal("non-existent account should be empty")
	}

	db.CreateAccount(addr)
	if !db.Empty(addr) {
		t.Fatal("freshly created account with no balance/nonce/code should be empty")
	}

	db.AddBalance(addr, big.NewInt(1))
	if db.Empty(addr) {
		t.Fatal("account with non-zero balance should not be empty")
	}
}

func TestMemoryStateDB_Copy(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(13)
	db.AddBalance(addr, big.NewInt(100))
	db.SetNonce(addr, 3)

	cp := db.Copy()
	cp.AddBalance(addr, big.NewInt(50))

	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("original should be unaffected by copy mutation, got %s", bal)
	}
	if bal := cp.GetBalance(addr); bal.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("copy should reflect its own mutation, got %s", bal)
	}
}

func TestMemoryStateDB_Logs(t *testing.T) {
	db := NewMemoryStateDB()
	txHash := testHash(1)
	db.SetTxContext(txHash, 0)

	db.AddLog(&types.Log{Address: testAddr(1), Topics: []types.Hash{testHash(2)}})
	db.AddLog(&types.Log{Address: testAddr(2)})

	logs := db.GetLogs(txHash)
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].TxHash != txHash {
		t.Fatalf("expected log tx hash %x, got %x", txHash, logs[0].TxHash)
	}
}

func TestMemoryStateDB_Refund(t *testing.T) {
	db := NewMemoryStateDB()
	db.AddRefund(100)
	db.AddRefund(50)
	if r := db.GetRefund(); r != 150 {
		t.Fatalf("expected refund 150, got %d", r)
	}
	db.SubRefund(30)
	if r := db.GetRefund(); r != 120 {
		t.Fatalf("expected refund 120, got %d", r)
	}
}
