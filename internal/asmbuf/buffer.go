package asmbuf

import "encoding/binary"

// Buffer is a growable, append-only byte buffer that backs one function's
// code blob. Instructions are written sequentially; a handful of payload
// words within previously-written instructions can be patched in place
// once a forward reference's target becomes known.
//
// Grounded on the teacher's internal/asm.CodeSegment/Buffer: a plain byte
// slice grown geometrically, with writes expressed as small typed helpers
// rather than raw index arithmetic at every call site.
type Buffer struct {
	code []byte
}

// NewBuffer returns an empty Buffer ready for writing.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Bytes returns the buffer's contents. The returned slice aliases the
// Buffer's internal storage and must not be retained across further
// writes.
func (b *Buffer) Bytes() []byte {
	return b.code
}

// Len is an alias for CurrentAddress, provided for readability at call
// sites that think in terms of "how much have we written" rather than
// "what is the next instruction's address".
func (b *Buffer) Len() uint32 {
	return b.CurrentAddress()
}

// CurrentAddress returns the byte address at which the next write will
// land.
func (b *Buffer) CurrentAddress() uint32 {
	return uint32(len(b.code))
}

// CurrentAddressAligned4 returns the byte address at which the next write
// would land if up to three `nop` opcodes were first inserted to satisfy
// a 4-byte alignment requirement. It does not itself write anything.
func (b *Buffer) CurrentAddressAligned4() uint32 {
	addr := b.CurrentAddress()
	return alignUp4(addr)
}

func alignUp4(addr uint32) uint32 {
	if rem := addr % 4; rem != 0 {
		return addr + (4 - rem)
	}
	return addr
}

// AlignTo4 inserts up to three `nop` opcodes so that CurrentAddress()
// becomes 4-byte aligned. It is a no-op if already aligned.
func (b *Buffer) AlignTo4() {
	for b.CurrentAddress()%4 != 0 {
		b.WriteOpcode(OpNop)
	}
}

// WriteOpcode appends a 2-byte opcode with no payload and returns the byte
// address at which it was placed.
func (b *Buffer) WriteOpcode(op Opcode) uint32 {
	addr := b.CurrentAddress()
	b.writeUint16(uint16(op))
	return addr
}

// WriteOpcodeI16 appends an opcode followed by a single i16 payload word.
func (b *Buffer) WriteOpcodeI16(op Opcode, v int16) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint16(uint16(v))
	return addr
}

// WriteOpcodeI32 appends an opcode followed by a single i32 payload word.
func (b *Buffer) WriteOpcodeI32(op Opcode, v int32) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint32(uint32(v))
	return addr
}

// WriteOpcodeI64 appends an opcode followed by a single i64 payload word.
func (b *Buffer) WriteOpcodeI64(op Opcode, v int64) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint64(uint64(v))
	return addr
}

// WriteOpcodeF32 appends an opcode followed by a single f32 payload word.
func (b *Buffer) WriteOpcodeF32(op Opcode, bits uint32) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint32(bits)
	return addr
}

// WriteOpcodeF64 appends an opcode followed by a single f64 payload word,
// written as low-word then high-word per spec §6's imm_f64 layout.
func (b *Buffer) WriteOpcodeF64(op Opcode, bits uint64) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint32(uint32(bits))
	b.writeUint32(uint32(bits >> 32))
	return addr
}

// WriteOpcodeI16I32 appends an opcode followed by an i16 word then an i32
// word (e.g. break's depth and next-offset, or data_load_*'s offset and
// public-index).
func (b *Buffer) WriteOpcodeI16I32(op Opcode, a int16, c int32) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint16(uint16(a))
	b.writeUint32(uint32(c))
	return addr
}

// WriteOpcodeI32I32 appends an opcode followed by two i32 words.
func (b *Buffer) WriteOpcodeI32I32(op Opcode, a, c int32) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint32(uint32(a))
	b.writeUint32(uint32(c))
	return addr
}

// WriteOpcodeI32I32I32 appends an opcode followed by three i32 words.
func (b *Buffer) WriteOpcodeI32I32I32(op Opcode, a, c, d int32) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint32(uint32(a))
	b.writeUint32(uint32(c))
	b.writeUint32(uint32(d))
	return addr
}

// WriteOpcodeI16I16I16 appends an opcode followed by three i16 words
// (depth, offset, slot_index for local_load_*/local_store_*).
func (b *Buffer) WriteOpcodeI16I16I16(op Opcode, a, c, d int16) uint32 {
	addr := b.WriteOpcode(op)
	b.writeUint16(uint16(a))
	b.writeUint16(uint16(c))
	b.writeUint16(uint16(d))
	return addr
}

// WriteRawI32 and WriteRawI16 append further payload words to an
// instruction already started by one of the WriteOpcode* helpers, for
// instruction shapes not covered by a named helper (e.g. block's pad and
// index words, or block_alt's three i32 words). The caller is
// responsible for matching the instruction's declared total length.
func (b *Buffer) WriteRawI32(v int32) {
	b.writeUint32(uint32(v))
}

func (b *Buffer) WriteRawI16(v int16) {
	b.writeUint16(uint16(v))
}

// PatchI32 overwrites the i32 word at byte offset `at` within a
// previously-written instruction. `at` must point exactly at the start of
// a 4-byte payload word.
func (b *Buffer) PatchI32(at uint32, v int32) {
	binary.LittleEndian.PutUint32(b.code[at:at+4], uint32(v))
}

// PatchI16 overwrites the i16 word at byte offset `at`.
func (b *Buffer) PatchI16(at uint32, v int16) {
	binary.LittleEndian.PutUint16(b.code[at:at+2], uint16(v))
}

// PatchBlockNezNextOffset patches the `next_offset` field of a
// `block_nez` instruction previously emitted at address `blockAddr`. The
// field is the second i32 word, following the opcode and the
// local-layout-index word.
func (b *Buffer) PatchBlockNezNextOffset(blockAddr uint32, offset int32) {
	b.PatchI32(blockAddr+2+4, offset)
}

// PatchBlockAltNextOffset patches the `next_offset` field of a
// `block_alt` instruction previously emitted at address `blockAddr`. The
// field is the third i32 word, following the opcode, type-index, and
// local-layout-index words.
func (b *Buffer) PatchBlockAltNextOffset(blockAddr uint32, offset int32) {
	b.PatchI32(blockAddr+2+4+4, offset)
}

// PatchBreakNextOffset patches the `next_offset` field of a `break`
// instruction previously emitted at address `breakAddr`. The field is
// the i32 word following the opcode and the i16 depth word.
func (b *Buffer) PatchBreakNextOffset(breakAddr uint32, offset int32) {
	b.PatchI32(breakAddr+2+2, offset)
}

// PatchBreakAltNextOffset patches the `next_offset` field of a
// `break_alt` instruction. It shares break's (i16, i32) layout.
func (b *Buffer) PatchBreakAltNextOffset(breakAltAddr uint32, offset int32) {
	b.PatchI32(breakAltAddr+2+2, offset)
}

func (b *Buffer) writeUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.code = append(b.code, tmp[:]...)
}

func (b *Buffer) writeUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.code = append(b.code, tmp[:]...)
}

func (b *Buffer) writeUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.code = append(b.code, tmp[:]...)
}
