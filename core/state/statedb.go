package state

import "github.com/ethforge/evmcore/core/vm"

// Verify MemoryStateDB satisfies vm.StateDB at compile time.
var _ vm.StateDB = (*MemoryStateDB)(nil)
