package emitter

import (
	"fmt"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmbuf"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/coerce"
)

// Opcodes for the families dispatched through the Instruction Encoder.
// The control-flow opcodes (nop, end, block, block_nez, block_alt,
// break, break_alt, recur) live in internal/asmbuf since the Control-Flow
// Stack and Expression Emitter reference them directly; everything below
// is only ever reached through the encoders table.
const (
	opImmI32 asmbuf.Opcode = 0x0200 + iota
	opImmI64
	opImmF32
	opImmF64
)

const (
	opLocalLoadI32 asmbuf.Opcode = 0x0400 + iota
	opLocalLoadI32S
	opLocalLoadI64
	opLocalLoadF32
	opLocalLoadF64
	opLocalStoreI32
	opLocalStoreI64
	opLocalStoreF32
	opLocalStoreF64
	opLocalLoadExtendI32
	opLocalStoreExtendI32
)

const (
	opDataLoadI32 asmbuf.Opcode = 0x0500 + iota
	opDataLoadI32S
	opDataLoadI64
	opDataLoadF32
	opDataLoadF64
	opDataStoreI32
	opDataStoreI64
	opDataStoreF32
	opDataStoreF64
	opDataLoadExtendI32
	opDataStoreExtendI32
)

const (
	opMemoryLoadI32 asmbuf.Opcode = 0x0600 + iota
	opMemoryLoadI64
	opMemoryStoreI32
	opMemoryStoreI64
	opMemoryFill
	opMemoryCopy
	opMemoryCapacity
	opMemoryResize
)

const (
	opNegI32 asmbuf.Opcode = 0x0700 + iota
	opNegI64
	opNegF32
	opNegF64
	opAbsF32
	opAbsF64
	opEqzI32
	opEqzI64
)

const (
	opAddI32 asmbuf.Opcode = 0x0800 + iota
	opSubI32
	opMulI32
	opAddI64
	opSubI64
	opMulI64
	opAddF32
	opSubF32
	opMulF32
	opAddF64
	opSubF64
	opMulF64
	opAndI32
	opOrI32
	opXorI32
	opShlI32
	opShrI32S
	opRotlI32
)

const (
	opAddImmI32 asmbuf.Opcode = 0x0900 + iota
	opSubImmI32
	opAddImmI64
	opSubImmI64
)

const (
	opCall asmbuf.Opcode = 0x0a00 + iota
	opExtcall
	opDyncall
	opEnvcall
	opSyscall
	opGetFunction
	opHostAddrFunction
	opHostAddrData
	opHostAddrDataExtend
)

const opPanic asmbuf.Opcode = 0x0b00

type encodeFunc func(e *Emitter, expr ast.Expression) error

var encoders map[string]encodeFunc

func init() {
	encoders = map[string]encodeFunc{
		"nop": niladic(asmbuf.OpNop),

		"imm_i32": immediate(opImmI32, true),
		"imm_i64": immediate(opImmI64, true),
		"imm_f32": immediate(opImmF32, false),
		"imm_f64": immediate(opImmF64, false),

		"local_load_i32":   localLoad(opLocalLoadI32),
		"local_load_i32_s": localLoad(opLocalLoadI32S),
		"local_load_i64":   localLoad(opLocalLoadI64),
		"local_load_f32":   localLoad(opLocalLoadF32),
		"local_load_f64":   localLoad(opLocalLoadF64),
		"local_store_i32":  localStore(opLocalStoreI32),
		"local_store_i64":  localStore(opLocalStoreI64),
		"local_store_f32":  localStore(opLocalStoreF32),
		"local_store_f64":  localStore(opLocalStoreF64),

		"local_load_extend_i32":  localLoadExtend(opLocalLoadExtendI32),
		"local_store_extend_i32": localStoreExtend(opLocalStoreExtendI32),

		"data_load_i32":   dataLoad(opDataLoadI32),
		"data_load_i32_s": dataLoad(opDataLoadI32S),
		"data_load_i64":   dataLoad(opDataLoadI64),
		"data_load_f32":   dataLoad(opDataLoadF32),
		"data_load_f64":   dataLoad(opDataLoadF64),
		"data_store_i32":  dataStore(opDataStoreI32),
		"data_store_i64":  dataStore(opDataStoreI64),
		"data_store_f32":  dataStore(opDataStoreF32),
		"data_store_f64":  dataStore(opDataStoreF64),

		"data_load_extend_i32":  dataLoadExtend(opDataLoadExtendI32),
		"data_store_extend_i32": dataStoreExtend(opDataStoreExtendI32),

		"memory_load_i32":  memoryLoad(opMemoryLoadI32),
		"memory_load_i64":  memoryLoad(opMemoryLoadI64),
		"memory_store_i32": memoryStore(opMemoryStoreI32),
		"memory_store_i64": memoryStore(opMemoryStoreI64),
		"memory_fill":      variadicNoPayload(opMemoryFill, 3),
		"memory_copy":      variadicNoPayload(opMemoryCopy, 3),
		"memory_capacity":  niladic(opMemoryCapacity),
		"memory_resize":    unary(opMemoryResize),

		"neg_i32": unary(opNegI32),
		"neg_i64": unary(opNegI64),
		"neg_f32": unary(opNegF32),
		"neg_f64": unary(opNegF64),
		"abs_f32": unary(opAbsF32),
		"abs_f64": unary(opAbsF64),
		"eqz_i32": unary(opEqzI32),
		"eqz_i64": unary(opEqzI64),

		"add_i32":    binary(opAddI32),
		"sub_i32":    binary(opSubI32),
		"mul_i32":    binary(opMulI32),
		"add_i64":    binary(opAddI64),
		"sub_i64":    binary(opSubI64),
		"mul_i64":    binary(opMulI64),
		"add_f32":    binary(opAddF32),
		"sub_f32":    binary(opSubF32),
		"mul_f32":    binary(opMulF32),
		"add_f64":    binary(opAddF64),
		"sub_f64":    binary(opSubF64),
		"mul_f64":    binary(opMulF64),
		"and_i32":    binary(opAndI32),
		"or_i32":     binary(opOrI32),
		"xor_i32":    binary(opXorI32),
		"shl_i32":    binary(opShlI32),
		"shr_i32_s":  binary(opShrI32S),
		"rotl_i32":   binary(opRotlI32),

		"add_imm_i32": addSubImm(opAddImmI32),
		"sub_imm_i32": addSubImm(opSubImmI32),
		"add_imm_i64": addSubImm(opAddImmI64),
		"sub_imm_i64": addSubImm(opSubImmI64),

		"call":               callLike(opCall, image.RelocationFunctionPublicIndex, func(e *Emitter, id string) (uint32, error) { return e.res.FunctionPublicIndex(id) }),
		"extcall":            callLike(opExtcall, image.RelocationExternalFunctionIndex, func(e *Emitter, id string) (uint32, error) { return e.res.ExternalFunctionIndex(id) }),
		"dyncall":            encodeDyncall,
		"envcall":            encodeEnvcall,
		"syscall":            encodeSyscall,
		"get_function":       identifierIndex(opGetFunction, image.RelocationFunctionPublicIndex, func(e *Emitter, id string) (uint32, error) { return e.res.FunctionPublicIndex(id) }),
		"host_addr_function": identifierIndex(opHostAddrFunction, image.RelocationFunctionPublicIndex, func(e *Emitter, id string) (uint32, error) { return e.res.FunctionPublicIndex(id) }),
		"host_addr_data":        dataLoad(opHostAddrData),
		"host_addr_data_extend": dataLoadExtend(opHostAddrDataExtend),

		"panic": encodePanic,
	}
}

func (e *Emitter) emitInstruction(expr ast.Expression) error {
	fn, ok := encoders[expr.Mnemonic]
	if !ok {
		return &asmerr.UnknownInstructionError{Name: expr.Mnemonic, Function: e.Function}
	}
	return fn(e, expr)
}

// --- argument/named-argument helpers ---

func (e *Emitter) arityError(expr ast.Expression, expected string) error {
	return &asmerr.IncorrectInstructionParameterTypeError{
		Expected: expected, Actual: fmt.Sprintf("%d argument(s)", len(expr.Args)),
		Instruction: expr.Mnemonic, Function: e.Function,
	}
}

func (e *Emitter) expectArity(expr ast.Expression, n int) error {
	if len(expr.Args) != n {
		return e.arityError(expr, fmt.Sprintf("%d argument(s)", n))
	}
	return nil
}

func (e *Emitter) expectMinArity(expr ast.Expression, n int) error {
	if len(expr.Args) < n {
		return e.arityError(expr, fmt.Sprintf("at least %d argument(s)", n))
	}
	return nil
}

func (e *Emitter) identifierArg(expr ast.Expression, idx int) (string, error) {
	arg := expr.Args[idx]
	if !arg.IsIdentifier {
		return "", &asmerr.IncorrectInstructionParameterTypeError{
			Expected: "identifier", Actual: "expression", Instruction: expr.Mnemonic, Function: e.Function,
		}
	}
	return arg.IdentifierRef, nil
}

func (e *Emitter) literalArg(expr ast.Expression, idx int, requireInteger bool) (float64, error) {
	arg := expr.Args[idx]
	if !arg.IsLiteral {
		return 0, &asmerr.IncorrectInstructionParameterTypeError{
			Expected: "literal number", Actual: "non-literal", Instruction: expr.Mnemonic, Function: e.Function,
		}
	}
	if requireInteger && !coerce.FitsInteger(arg.LiteralType) {
		return 0, &asmerr.IncorrectInstructionParameterTypeError{
			Expected: "integer literal", Actual: arg.LiteralType.String(), Instruction: expr.Mnemonic, Function: e.Function,
		}
	}
	return arg.LiteralValue, nil
}

// namedOffset reads the optional `offset` named argument, the only
// recognized key across every family that accepts one. Any other key is
// an error; a missing key defaults to 0.
func (e *Emitter) namedOffset(expr ast.Expression) (int32, error) {
	var result int32
	for _, na := range expr.NamedArgs {
		if na.Key != "offset" {
			return 0, &asmerr.IncorrectInstructionParameterTypeError{
				Expected: "offset", Actual: na.Key, Instruction: expr.Mnemonic, Function: e.Function,
			}
		}
		if !na.Value.IsLiteral || !coerce.FitsInteger(na.Value.LiteralType) {
			return 0, &asmerr.IncorrectInstructionParameterTypeError{
				Expected: "integer literal", Actual: "non-integer", Instruction: expr.Mnemonic, Function: e.Function,
			}
		}
		result = int32(coerce.ToI32(na.Value.LiteralValue))
	}
	return result, nil
}

// --- niladic / unary / binary ---

func niladic(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 0); err != nil {
			return err
		}
		e.buf.WriteOpcode(op)
		return nil
	}
}

func unary(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[0]); err != nil {
			return err
		}
		e.buf.WriteOpcode(op)
		return nil
	}
}

func binary(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[0]); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		e.buf.WriteOpcode(op)
		return nil
	}
}

func variadicNoPayload(op asmbuf.Opcode, arity int) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, arity); err != nil {
			return err
		}
		for _, a := range expr.Args {
			if err := e.Emit(a); err != nil {
				return err
			}
		}
		e.buf.WriteOpcode(op)
		return nil
	}
}

func addSubImm(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		imm, err := e.literalArg(expr, 0, true)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		e.buf.WriteOpcodeI32(op, int32(coerce.ToI32(imm)))
		return nil
	}
}

// --- immediates ---

func immediate(op asmbuf.Opcode, integer bool) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		v, err := e.literalArg(expr, 0, integer)
		if err != nil {
			return err
		}
		switch op {
		case opImmI32:
			e.buf.WriteOpcodeI32(op, int32(coerce.ToI32(v)))
		case opImmI64:
			e.buf.WriteOpcodeI64(op, int64(coerce.ToI64(v)))
		case opImmF32:
			e.buf.WriteOpcodeF32(op, coerce.ToF32(v))
		case opImmF64:
			e.buf.WriteOpcodeF64(op, coerce.ToF64(v))
		}
		return nil
	}
}

// --- locals ---

func localLoad(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		depth, slot, err := e.control.ResolveLocal(name)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16I16I16(op, int16(depth), int16(offset), int16(slot))
		return nil
	}
}

func localStore(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		depth, slot, err := e.control.ResolveLocal(name)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16I16I16(op, int16(depth), int16(offset), int16(slot))
		return nil
	}
}

func localLoadExtend(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		depth, slot, err := e.control.ResolveLocal(name)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16I32(op, int16(depth), int32(slot))
		return nil
	}
}

func localStoreExtend(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 3); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[2]); err != nil {
			return err
		}
		depth, slot, err := e.control.ResolveLocal(name)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16I32(op, int16(depth), int32(slot))
		return nil
	}
}

// --- data ---

func dataLoad(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		idx, err := e.res.DataPublicIndex(name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI16I32(op, int16(offset), int32(idx))
		e.addRelocation(addr+4, image.RelocationDataPublicIndex)
		return nil
	}
}

func dataStore(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		idx, err := e.res.DataPublicIndex(name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI16I32(op, int16(offset), int32(idx))
		e.addRelocation(addr+4, image.RelocationDataPublicIndex)
		return nil
	}
}

func dataLoadExtend(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		idx, err := e.res.DataPublicIndex(name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI32(op, int32(idx))
		e.addRelocation(addr+2, image.RelocationDataPublicIndex)
		return nil
	}
}

func dataStoreExtend(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 3); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[2]); err != nil {
			return err
		}
		idx, err := e.res.DataPublicIndex(name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI32(op, int32(idx))
		e.addRelocation(addr+2, image.RelocationDataPublicIndex)
		return nil
	}
}

// --- memory ---

func memoryLoad(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[0]); err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16(op, int16(offset))
		return nil
	}
}

func memoryStore(op asmbuf.Opcode) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 2); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[0]); err != nil {
			return err
		}
		if err := e.Emit(expr.Args[1]); err != nil {
			return err
		}
		offset, err := e.namedOffset(expr)
		if err != nil {
			return err
		}
		e.buf.WriteOpcodeI16(op, int16(offset))
		return nil
	}
}

// --- calls ---

func identifierIndex(op asmbuf.Opcode, kind image.RelocationKind, lookup func(*Emitter, string) (uint32, error)) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectArity(expr, 1); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		idx, err := lookup(e, name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI32(op, int32(idx))
		e.addRelocation(addr+2, kind)
		return nil
	}
}

func callLike(op asmbuf.Opcode, kind image.RelocationKind, lookup func(*Emitter, string) (uint32, error)) encodeFunc {
	return func(e *Emitter, expr ast.Expression) error {
		if err := e.expectMinArity(expr, 1); err != nil {
			return err
		}
		name, err := e.identifierArg(expr, 0)
		if err != nil {
			return err
		}
		for _, a := range expr.Args[1:] {
			if err := e.Emit(a); err != nil {
				return err
			}
		}
		idx, err := lookup(e, name)
		if err != nil {
			return err
		}
		addr := e.buf.WriteOpcodeI32(op, int32(idx))
		e.addRelocation(addr+2, kind)
		return nil
	}
}

// encodeDyncall lowers `dyncall(index-expr, args…)`: args are emitted
// left-to-right, then the index expression, then the bare opcode.
func encodeDyncall(e *Emitter, expr ast.Expression) error {
	if err := e.expectMinArity(expr, 1); err != nil {
		return err
	}
	for _, a := range expr.Args[1:] {
		if err := e.Emit(a); err != nil {
			return err
		}
	}
	if err := e.Emit(expr.Args[0]); err != nil {
		return err
	}
	e.buf.WriteOpcode(opDyncall)
	return nil
}

// encodeEnvcall lowers `envcall(number, args…)`: args are emitted
// left-to-right, then the opcode carries the literal number as its
// payload.
func encodeEnvcall(e *Emitter, expr ast.Expression) error {
	if err := e.expectMinArity(expr, 1); err != nil {
		return err
	}
	number, err := e.literalArg(expr, 0, true)
	if err != nil {
		return err
	}
	for _, a := range expr.Args[1:] {
		if err := e.Emit(a); err != nil {
			return err
		}
	}
	e.buf.WriteOpcodeI32(opEnvcall, int32(coerce.ToI32(number)))
	return nil
}

// encodeSyscall lowers `syscall(number, args…)`: args are emitted, then
// the number and the argument count are themselves pushed as imm_i32
// instructions ahead of the bare syscall opcode.
func encodeSyscall(e *Emitter, expr ast.Expression) error {
	if err := e.expectMinArity(expr, 1); err != nil {
		return err
	}
	number, err := e.literalArg(expr, 0, true)
	if err != nil {
		return err
	}
	rest := expr.Args[1:]
	for _, a := range rest {
		if err := e.Emit(a); err != nil {
			return err
		}
	}
	e.buf.WriteOpcodeI32(opImmI32, int32(coerce.ToI32(number)))
	e.buf.WriteOpcodeI32(opImmI32, int32(len(rest)))
	e.buf.WriteOpcode(opSyscall)
	return nil
}

// encodePanic lowers `panic(code-literal)`.
func encodePanic(e *Emitter, expr ast.Expression) error {
	if err := e.expectArity(expr, 1); err != nil {
		return err
	}
	code, err := e.literalArg(expr, 0, true)
	if err != nil {
		return err
	}
	e.buf.WriteOpcodeI32(opPanic, int32(coerce.ToI32(code)))
	return nil
}
