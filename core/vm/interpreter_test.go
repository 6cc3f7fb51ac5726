package vm

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethforge/evmcore/core/types"
)

func newTestEVM() *EVM {
	blockCtx := BlockContext{
		GetHash:     func(uint64) types.Hash { return types.Hash{} },
		BlockNumber: big.NewInt(1),
		GasLimit:    30_000_000,
		BaseFee:     big.NewInt(0),
	}
	return NewEVM(blockCtx, TxContext{GasPrice: big.NewInt(0)}, Config{}, Cancun)
}

func runCode(t *testing.T, code []byte, gas uint64) ([]byte, uint64, error) {
	t.Helper()
	evm := newTestEVM()
	contract := NewContract(types.Address{}, types.Address{}, big.NewInt(0), gas)
	contract.Code = code
	ret, err := evm.Run(contract, nil)
	return ret, contract.Gas, err
}

// PUSH1 5; PUSH1 10; ADD; STOP
func TestScenario_PushAddStop(t *testing.T) {
	code := []byte{0x60, 0x05, 0x60, 0x0A, 0x01, 0x00}
	ret, gasLeft, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ret) != 0 {
		t.Fatalf("expected empty output on STOP, got %x", ret)
	}
	if gasLeft != 999_991 {
		t.Fatalf("expected gas_left 999991, got %d", gasLeft)
	}
}

// PUSH1 0; PUSH1 5; DIV; STOP -- division by zero yields zero, execution continues.
func TestScenario_DivByZero(t *testing.T) {
	code := []byte{0x60, 0x00, 0x60, 0x05, 0x04, 0x00}
	_, _, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// PUSH1 6; JUMP; INVALID; INVALID; INVALID; JUMPDEST; PUSH1 42; STOP -- the
// JUMPDEST sits at byte offset 6 in this layout (PUSH1+operand, JUMP, three
// INVALIDs), so the jump target must be 6 for the JUMPDEST to actually be
// reached; landing on offset 8 would land on the trailing PUSH1's push-data
// byte instead and fail exactly like TestScenario_JumpToPushData.
func TestScenario_JumpOverInvalids(t *testing.T) {
	code := []byte{0x60, 0x06, 0x56, 0xFE, 0xFE, 0xFE, 0x5B, 0x60, 0x2A, 0x00}
	_, _, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// PUSH1 4; JUMP; PUSH1 42; STOP -- target PC 4 is the second PUSH1's push-data byte, not a JUMPDEST.
func TestScenario_JumpToPushData(t *testing.T) {
	code := []byte{0x60, 0x04, 0x56, 0x60, 0x2A, 0x00}
	_, _, err := runCode(t, code, 1_000_000)
	if !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("expected ErrInvalidJump, got %v", err)
	}
}

// 1025 repeated PUSH0s must overflow the 1024-slot stack.
func TestScenario_StackOverflow(t *testing.T) {
	code := bytes.Repeat([]byte{0x5F}, 1025)
	_, _, err := runCode(t, code, 10_000_000)
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected ErrStackOverflow, got %v", err)
	}
}

// PUSH1 0x42; PUSH1 0; MSTORE; PUSH1 32; PUSH1 0; RETURN
func TestScenario_MstoreReturn(t *testing.T) {
	code := []byte{0x60, 0x42, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xF3}
	ret, _, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := make([]byte, 32)
	want[31] = 0x42
	if !bytes.Equal(ret, want) {
		t.Fatalf("expected %x, got %x", want, ret)
	}
}

func TestEmptyBytecodeSucceeds(t *testing.T) {
	ret, gasLeft, err := runCode(t, nil, 21_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ret) != 0 {
		t.Fatalf("expected empty output, got %x", ret)
	}
	if gasLeft != 21_000 {
		t.Fatalf("expected unchanged gas on empty code, got %d", gasLeft)
	}
}

func TestSingleInvalidOpcodeHalts(t *testing.T) {
	code := []byte{0xFE}
	_, _, err := runCode(t, code, 1_000_000)
	if err == nil {
		t.Fatal("expected an error for the INVALID opcode")
	}
}

func TestSdivMinInt256ByNegOne(t *testing.T) {
	// PUSH32 -1 (i.e. 2^256-1); PUSH32 -2^255; SDIV; PUSH1 0; MSTORE; PUSH1 32; PUSH1 0; RETURN
	minInt256 := make([]byte, 32)
	minInt256[0] = 0x80
	code := append([]byte{0x7F}, bytes.Repeat([]byte{0xFF}, 32)...)
	code = append(code, 0x7F)
	code = append(code, minInt256...)
	code = append(code, 0x05) // SDIV
	code = append(code, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xF3)

	ret, _, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(ret, minInt256) {
		t.Fatalf("expected SDIV(-2^255, -1) = -2^255 (%x), got %x", minInt256, ret)
	}
}

func TestExpZeroZero(t *testing.T) {
	// PUSH1 0; PUSH1 0; EXP; PUSH1 0; MSTORE; PUSH1 32; PUSH1 0; RETURN
	code := []byte{0x60, 0x00, 0x60, 0x00, 0x0A, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xF3}
	ret, _, err := runCode(t, code, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := make([]byte, 32)
	want[31] = 1
	if !bytes.Equal(ret, want) {
		t.Fatalf("expected EXP(0,0)=1 (%x), got %x", want, ret)
	}
}
