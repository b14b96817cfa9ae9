package asmbuf

// Opcode identifies a single bytecode instruction. Every opcode occupies
// exactly two bytes in the encoded stream, written little-endian.
type Opcode uint16

// PayloadShape enumerates the fixed shapes a multi-word instruction's
// payload can take, per spec §4.1.
type PayloadShape byte

const (
	ShapeNone PayloadShape = iota
	ShapeI16
	ShapeI32
	ShapeI64
	ShapeF32
	ShapeF64
	ShapeI16I32
	ShapeI32I32
	ShapeI32I32I32
	ShapeI16I16I16
)

// PayloadSize returns the number of payload bytes (excluding the 2-byte
// opcode itself) a given shape occupies.
func (s PayloadShape) PayloadSize() int {
	switch s {
	case ShapeNone:
		return 0
	case ShapeI16:
		return 2
	case ShapeI32, ShapeF32:
		return 4
	case ShapeI16I32, ShapeI16I16I16:
		return 6
	case ShapeI64, ShapeF64, ShapeI32I32:
		return 8
	case ShapeI32I32I32:
		return 12
	default:
		return 0
	}
}

// Well-known opcodes referenced directly by the Control-Flow Stack and the
// Expression Emitter. All other instruction mnemonics are dispatched
// through the Instruction Encoder's opcode table (internal/emitter).
const (
	OpNop      Opcode = 0x0100
	OpEnd      Opcode = 0x03c0
	OpBlock    Opcode = 0x0180
	OpBlockNez Opcode = 0x0181
	OpBlockAlt Opcode = 0x0182
	OpBreak    Opcode = 0x0190
	OpBreakAlt Opcode = 0x0191
	OpRecur    Opcode = 0x0192
)

// BlockInstructionLength is the fixed byte length (including the 2-byte
// opcode) of a `block` instruction: opcode + i16 pad + i32 type-index +
// i32 local-layout-index.
const BlockInstructionLength = 12

// BreakAltInstructionLength is the fixed byte length (including the
// 2-byte opcode) of a `break_alt` instruction: opcode + i16 pad + i32
// next-offset.
const BreakAltInstructionLength = 8

// BreakInstructionLength is the fixed byte length of a `break`
// instruction: opcode + i16 depth + i32 next-offset.
const BreakInstructionLength = 8

// BlockNezInstructionLength is the fixed byte length of a `block_nez`
// instruction: opcode + i32 local-layout-index + i32 next-offset.
const BlockNezInstructionLength = 10

// BlockAltInstructionLength is the fixed byte length of a `block_alt`
// instruction: opcode + i32 type-index + i32 local-layout-index + i32
// next-offset.
const BlockAltInstructionLength = 14
