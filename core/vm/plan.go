package vm

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"github.com/holiman/uint256"
)

// ErrBytecodeTooLarge is returned by the plan builder when code exceeds
// MaxBytecodeSize.
var ErrBytecodeTooLarge = errors.New("vm: bytecode too large")

// CacheOptions tunes the analyzer/planner/cache subsystem.
type CacheOptions struct {
	CacheCapacity         int
	MaxBytecodeSize       int
	MaxInitcodeSize       int
	StackCapacity         int
	VectorizeJumpdestScan bool
}

// DefaultCacheOptions returns the documented defaults.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		CacheCapacity:         32,
		MaxBytecodeSize:       24576,
		MaxInitcodeSize:       49152,
		StackCapacity:         stackCapacity,
		VectorizeJumpdestScan: true,
	}
}

// Instruction is one slot of a Plan's instruction stream. It carries the
// resolved operation (so dispatch never re-indexes the jump table by raw
// opcode byte) plus any immediate operand -- a PUSH constant, or the baked
// constant of a fused PUSH+op pair.
type Instruction struct {
	op            OpCode
	operation     *operation
	operand       uint256.Int
	hasOperand    bool
	pc            uint64 // original byte offset, for PC/jump-target bookkeeping
	fallthroughPC uint64 // byte offset of the next sequential instruction
}

// Plan is the immutable output of analysis + instruction-stream
// construction for one (bytecode, hardfork) pair. It is safe for
// concurrent read-only use by multiple interpreter invocations.
type Plan struct {
	key          uint64
	hardfork     Hardfork
	code         []byte
	instructions []Instruction
	pcToIndex    []int32 // dense map: byte pc -> instruction index, -1 if invalid
	analysis     *codeAnalysis
}

// planKey computes the 64-bit cache key for (code, hardfork).
func planKey(code []byte, hf Hardfork) uint64 {
	h := xxhash.New()
	h.Write(code)
	return h.Sum64() ^ (uint64(hf) * 0x9e3779b97f4a7c15)
}

var fusionConsumers = map[OpCode]OpCode{
	ADD:     fusedPushAdd,
	SUB:     fusedPushSub,
	MUL:     fusedPushMul,
	DIV:     fusedPushDiv,
	AND:     fusedPushAnd,
	OR:      fusedPushOr,
	XOR:     fusedPushXor,
	JUMP:    fusedPushJump,
	JUMPI:   fusedPushJumpi,
	MLOAD:   fusedPushMload,
	MSTORE:  fusedPushMstore,
	MSTORE8: fusedPushMstore8,
}

// buildPlan runs the analyzer and constructs the instruction stream,
// detecting PUSH+op fusions along the way. It never mutates code.
func buildPlan(code []byte, hf Hardfork, opts CacheOptions) (*Plan, error) {
	if len(code) > opts.MaxBytecodeSize {
		return nil, ErrBytecodeTooLarge
	}

	table := jumpTableForHardfork(hf)
	a := analyze(code, hf)

	p := &Plan{
		key:       planKey(code, hf),
		hardfork:  hf,
		code:      code,
		analysis:  a,
		pcToIndex: make([]int32, len(code)+1),
	}
	for i := range p.pcToIndex {
		p.pcToIndex[i] = -1
	}

	n := len(code)
	for pc := 0; pc < n; {
		op := OpCode(code[pc])

		if op.IsPush() {
			width := int(op - PUSH1 + 1)
			var val uint256.Int
			val.SetBytes(pushBytes(code, pc+1, width))

			consumerPC := pc + 1 + width
			if fused, ok := tryFuse(code, consumerPC, n); ok {
				idx := len(p.instructions)
				p.instructions = append(p.instructions, Instruction{
					op:            fused,
					operation:     table[fused],
					operand:       val,
					hasOperand:    true,
					pc:            uint64(pc),
					fallthroughPC: uint64(consumerPC + 1),
				})
				p.pcToIndex[pc] = int32(idx)
				p.pcToIndex[consumerPC] = int32(idx)
				pc = consumerPC + 1
				continue
			}

			idx := len(p.instructions)
			p.instructions = append(p.instructions, Instruction{
				op:            op,
				operation:     table[op],
				operand:       val,
				hasOperand:    true,
				pc:            uint64(pc),
				fallthroughPC: uint64(pc + width + 1),
			})
			p.pcToIndex[pc] = int32(idx)
			pc += width + 1
			continue
		}

		operation := table[op]
		if _, fused := fusedOpNames[op]; fused {
			operation = nil // raw bytes in the fusion range are undefined opcodes
		}
		idx := len(p.instructions)
		p.instructions = append(p.instructions, Instruction{
			op:            op,
			operation:     operation,
			pc:            uint64(pc),
			fallthroughPC: uint64(pc + 1),
		})
		p.pcToIndex[pc] = int32(idx)
		pc++
	}

	return p, nil
}

// tryFuse reports whether the single opcode at consumerPC is eligible to be
// fused with the preceding PUSH, and returns the synthetic fused opcode.
// Fusion never crosses a basic-block boundary; since the consumer
// immediately follows the PUSH's last byte with no intervening JUMPDEST,
// this is automatically satisfied.
func tryFuse(code []byte, consumerPC, n int) (OpCode, bool) {
	if consumerPC >= n {
		return 0, false
	}
	op := OpCode(code[consumerPC])
	fused, ok := fusionConsumers[op]
	return fused, ok
}

// pushBytes extracts up to width bytes starting at pos, zero-padding past
// the end of code (a truncated PUSHn's missing bytes are treated as zero).
func pushBytes(code []byte, pos, width int) []byte {
	buf := make([]byte, width)
	n := copy(buf, safeSlice(code, pos, pos+width))
	_ = n
	return buf
}

func safeSlice(code []byte, start, end int) []byte {
	if start >= len(code) {
		return nil
	}
	if end > len(code) {
		end = len(code)
	}
	return code[start:end]
}

// indexForPC returns the instruction index for a byte pc, or -1 if pc is
// not a valid opcode start.
func (p *Plan) indexForPC(pc uint64) int32 {
	if pc >= uint64(len(p.pcToIndex)) {
		return -1
	}
	return p.pcToIndex[pc]
}

// entryBlock returns the basic-block summary for PC 0, whose static gas
// must be charged before the first instruction executes.
func (p *Plan) entryBlock() *blockSummary {
	b, _ := p.analysis.blockFor(0)
	return b
}
