package vm

import (
	"sync"

	"github.com/holiman/uint256"
)

// stackCapacity is the maximum number of 256-bit words the operand stack
// may hold at once (Yellow Paper Appendix H).
const stackCapacity = 1024

var stackPool = sync.Pool{
	New: func() any {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// Stack is the EVM operand stack: up to 1024 256-bit words, LIFO.
type Stack struct {
	data []uint256.Int
}

// NewStack returns an empty stack drawn from a shared pool.
func NewStack() *Stack {
	return stackPool.Get().(*Stack)
}

// ReturnStack releases a stack back to the pool. The caller must not use
// the stack again afterwards.
func ReturnStack(st *Stack) {
	st.data = st.data[:0]
	stackPool.Put(st)
}

// Push pushes a value onto the stack. The caller (the dispatch preamble)
// is responsible for verifying capacity; Push itself does not check.
func (st *Stack) Push(val *uint256.Int) {
	st.data = append(st.data, *val)
}

// Pop removes and returns the top element.
func (st *Stack) Pop() uint256.Int {
	n := len(st.data) - 1
	v := st.data[n]
	st.data = st.data[:n]
	return v
}

// Peek returns a pointer to the top element without removing it.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns a pointer to the nth element from the top (0 = top).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-1-n]
}

// Swap exchanges the top element with the nth element from the top.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup duplicates the nth element from the top (1-indexed, as in DUPn)
// and pushes the copy.
func (st *Stack) Dup(n int) {
	v := st.data[len(st.data)-n]
	st.data = append(st.data, v)
}

// Len returns the number of items currently on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Data returns the underlying stack slice, bottom to top. Callers must
// not retain it past the next mutation.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

// Reset empties the stack for reuse.
func (st *Stack) Reset() {
	st.data = st.data[:0]
}
