package vm

import "github.com/holiman/uint256"

// Memory is the EVM's byte-addressable memory. Size is always a multiple
// of 32 bytes; it only ever grows within a single call frame, and its
// growth cost follows the quadratic expansion formula in gas_table.go.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Set copies value into memory at the given offset. The region
// [offset, offset+size) must already be within bounds (Resize first).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes a 256-bit word at offset, big-endian, zero-padded.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Resize grows memory to size bytes (which must already be a multiple of
// 32); it never shrinks.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Get returns a freshly-allocated copy of memory at [offset, offset+size).
// Out-of-bounds bytes (beyond the current store) read as zero.
func (m *Memory) Get(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	if offset >= int64(len(m.store)) {
		return out
	}
	end := offset + size
	if end > int64(len(m.store)) {
		end = int64(len(m.store))
	}
	copy(out, m.store[offset:end])
	return out
}

// GetPtr returns a direct slice reference to memory at [offset, offset+size).
// The caller must not retain it past the next mutation.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Copy implements MCOPY (EIP-5656) semantics: copies size bytes from src to
// dst within the same memory, correctly handling overlapping regions.
func (m *Memory) Copy(dst, src, size uint64) {
	if size == 0 {
		return
	}
	copy(m.store[dst:dst+size], m.store[src:src+size])
}

// Len returns the current length of memory in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the full backing slice.
func (m *Memory) Data() []byte {
	return m.store
}

// Reset empties memory for reuse across calls.
func (m *Memory) Reset() {
	m.store = m.store[:0]
	m.lastGasCost = 0
}
