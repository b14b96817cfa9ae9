package emitter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/controlflow"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/localtable"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/resolver"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/typetable"
)

func instr(mnemonic string, args ...ast.Expression) ast.Expression {
	return ast.Expression{Kind: ast.ExprInstruction, Mnemonic: mnemonic, Args: args}
}

func literal(t image.PrimitiveType, v float64) ast.Expression {
	return ast.Expression{IsLiteral: true, LiteralType: t, LiteralValue: v}
}

func ident(name string) ast.Expression {
	return ast.Expression{IsIdentifier: true, IdentifierRef: name}
}

func readI32(b []byte, at uint32) int32 {
	return int32(binary.LittleEndian.Uint32(b[at : at+4]))
}

func readI16(b []byte, at uint32) int16 {
	return int16(binary.LittleEndian.Uint16(b[at : at+2]))
}

func newEmitter(functionNames []string) *Emitter {
	return New("f", controlflow.New(functionNames), typetable.New(), localtable.New(), resolver.New(nil, nil, nil))
}

func TestEmptyBodyEmitsNopThenEnd(t *testing.T) {
	e := newEmitter(nil)
	code, relocs, err := e.EmitFunctionBody(instr("nop"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x01, 0xc0, 0x03}, code)
	require.Empty(t, relocs)
}

func TestCallForwardReferenceRecordsRelocation(t *testing.T) {
	res := resolver.New([]string{"foo", "bar"}, nil, nil)
	e := New("foo", controlflow.New(nil), typetable.New(), localtable.New(), res)
	code, relocs, err := e.EmitFunctionBody(instr("call", ident("bar")))
	require.NoError(t, err)

	require.EqualValues(t, opCall, binary.LittleEndian.Uint16(code[0:2]))
	require.EqualValues(t, 1, readI32(code, 2))
	require.Len(t, relocs, 1)
	require.Equal(t, image.Relocation{Offset: 2, Kind: image.RelocationFunctionPublicIndex}, relocs[0])
}

func TestExtcallUsesExternalIndexSpace(t *testing.T) {
	res := resolver.New([]string{"bar"}, nil, []string{"dothis"})
	e := New("foo", controlflow.New(nil), typetable.New(), localtable.New(), res)
	code, relocs, err := e.EmitFunctionBody(instr("extcall", ident("dothis")))
	require.NoError(t, err)
	require.EqualValues(t, 0, readI32(code, 2))
	require.Equal(t, image.RelocationExternalFunctionIndex, relocs[0].Kind)
}

func TestWhenPatchesPositiveOffset(t *testing.T) {
	e := newEmitter(nil)
	testing1 := instr("nop")
	consequence := instr("nop")
	body := ast.Expression{
		Kind:            ast.ExprWhen,
		WhenLocals:      []ast.LocalNode{{Name: "a", Class: image.StorageI32}},
		WhenTesting:     &testing1,
		WhenConsequence: &consequence,
	}
	code, _, err := e.EmitFunctionBody(body)
	require.NoError(t, err)

	blockAddr := uint32(2) // testing `nop` occupies bytes [0,2)
	offset := readI32(code, blockAddr+6)
	require.Positive(t, offset)
}

func TestIfPatchesBlockAltAndBreakAlt(t *testing.T) {
	e := newEmitter(nil)
	testing1 := instr("nop")
	consequence := instr("imm_i32", literal(image.I32, 1))
	alternative := instr("imm_i32", literal(image.I32, 2))
	body := ast.Expression{
		Kind:          ast.ExprIf,
		IfResults:     []image.PrimitiveType{image.I32},
		IfTesting:     &testing1,
		IfConsequence: &consequence,
		IfAlternative: &alternative,
	}
	code, relocs, err := e.EmitFunctionBody(body)
	require.NoError(t, err)

	blockAltAddr := uint32(2)
	breakAltAddr := uint32(22)
	require.EqualValues(t, 16, readI32(code, breakAltAddr+4))
	require.EqualValues(t, 28, readI32(code, blockAltAddr+10))

	var kinds []image.RelocationKind
	for _, r := range relocs {
		kinds = append(kinds, r.Kind)
	}
	require.Contains(t, kinds, image.RelocationTypeIndex)
	require.Contains(t, kinds, image.RelocationLocalLayoutIndex)
}

func TestBlockRecurTargetsOwnOpener(t *testing.T) {
	e := newEmitter(nil)
	recur := ast.Expression{Kind: ast.ExprRecur, BreakTarget: ast.TargetNearestBlock}
	body := ast.Expression{
		Kind:      ast.ExprBlock,
		BlockBody: &recur,
	}
	code, _, err := e.EmitFunctionBody(body)
	require.NoError(t, err)

	recurAddr := uint32(12) // block opener occupies bytes [0,12)
	require.EqualValues(t, 0, readI16(code, recurAddr+2))
	require.EqualValues(t, 0, readI32(code, recurAddr+4))
}

func TestLocalShadowingAcrossScopesErrors(t *testing.T) {
	e := newEmitter([]string{"x"})
	load := instr("local_load_i32", ident("x"))
	body := ast.Expression{
		Kind: ast.ExprBlock,
		BlockParams: []ast.BlockParamValue{
			{Param: ast.ParamNode{Name: "x", Type: image.I32}, Value: instr("imm_i32", literal(image.I32, 0))},
		},
		BlockBody: &load,
	}
	_, _, err := e.EmitFunctionBody(body)
	require.ErrorAs(t, err, new(*asmerr.LocalVariableNotFoundError))
}

func TestUnknownInstructionErrors(t *testing.T) {
	e := newEmitter(nil)
	_, _, err := e.EmitFunctionBody(instr("totally_made_up"))
	require.ErrorAs(t, err, new(*asmerr.UnknownInstructionError))
}

func TestArityErrorOnCallWithNoIdentifier(t *testing.T) {
	e := newEmitter(nil)
	_, _, err := e.EmitFunctionBody(instr("call"))
	require.ErrorAs(t, err, new(*asmerr.IncorrectInstructionParameterTypeError))
}

func TestCallToUndefinedIdentifierErrors(t *testing.T) {
	e := newEmitter(nil)
	_, _, err := e.EmitFunctionBody(instr("call", ident("ghost")))
	require.ErrorAs(t, err, new(*asmerr.FunctionNotFoundError))
}

func TestUnrecognizedNamedArgumentErrors(t *testing.T) {
	res := resolver.New(nil, []string{"x"}, nil)
	e := New("f", controlflow.New(nil), typetable.New(), localtable.New(), res)
	bad := ast.Expression{
		Kind: ast.ExprInstruction, Mnemonic: "data_load_i32",
		Args:      []ast.Expression{ident("x")},
		NamedArgs: []ast.NamedArgument{{Key: "bogus", Value: literal(image.I32, 0)}},
	}
	_, _, err := e.EmitFunctionBody(bad)
	require.ErrorAs(t, err, new(*asmerr.IncorrectInstructionParameterTypeError))
}

func TestDataLoadRecordsRelocationAtIndexField(t *testing.T) {
	res := resolver.New(nil, []string{"counter"}, nil)
	e := New("f", controlflow.New(nil), typetable.New(), localtable.New(), res)
	code, relocs, err := e.EmitFunctionBody(instr("data_load_i32", ident("counter")))
	require.NoError(t, err)
	require.EqualValues(t, 0, readI32(code, 4))
	require.Equal(t, image.Relocation{Offset: 4, Kind: image.RelocationDataPublicIndex}, relocs[0])
}
