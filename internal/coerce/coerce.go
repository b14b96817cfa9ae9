// Package coerce centralizes the declared-width coercion rules spec §4.6
// and §4.7 describe for literal numbers: integer widths bit-truncate or
// zero-extend, integer-to-float and float-to-float convert via the host's
// standard conversion, and float-to-integer where the operand cannot
// accept floats is an error.
//
// Both the Data-Segment Builder (initialized scalars) and the Instruction
// Encoder (literal-number arguments) route every literal through this
// package so the two call sites cannot drift from each other's coercion
// rules, per SPEC_FULL.md's "read-back accessor layer" supplement
// grounded on the original assembler's read_data_value_as_*/
// read_argument_value_as_* helpers.
package coerce

import (
	"encoding/binary"
	"math"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
)

// ToI32 truncates a literal number to a 32-bit integer bit pattern.
func ToI32(v float64) uint32 {
	return uint32(int32(v))
}

// ToI64 truncates a literal number to a 64-bit integer bit pattern.
func ToI64(v float64) uint64 {
	return uint64(int64(v))
}

// ToF32 converts a literal number to a 32-bit IEEE-754 bit pattern.
func ToF32(v float64) uint32 {
	return math.Float32bits(float32(v))
}

// ToF64 converts a literal number to a 64-bit IEEE-754 bit pattern.
func ToF64(v float64) uint64 {
	return math.Float64bits(v)
}

// Bytes renders a literal number's declared-type bit pattern as
// little-endian bytes.
func Bytes(t image.PrimitiveType, v float64) []byte {
	switch t {
	case image.I32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, ToI32(v))
		return b
	case image.I64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, ToI64(v))
		return b
	case image.F32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, ToF32(v))
		return b
	case image.F64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, ToF64(v))
		return b
	default:
		return nil
	}
}

// FitsInteger reports whether t is one of the integer primitive types
// (i32 or i64). Per spec §4.6, float-to-integer coercion is only valid
// where the operand position accepts floats; plain integer instruction
// slots use this check to reject a float literal outright rather than
// silently truncating it.
func FitsInteger(t image.PrimitiveType) bool {
	return t == image.I32 || t == image.I64
}

// PadOrTruncate zero-pads or truncates `b` to exactly `length` bytes, per
// spec §4.7's "fixed-length byte sequences" rule.
func PadOrTruncate(b []byte, length uint32) []byte {
	if uint32(len(b)) == length {
		return b
	}
	out := make([]byte, length)
	copy(out, b)
	return out
}
