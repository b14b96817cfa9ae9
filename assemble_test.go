package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
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

func fn(name string, body ast.Expression) ast.FunctionNode {
	return ast.FunctionNode{Name: name, Visibility: image.Public, Body: body}
}

func TestAssembleUnitEmptyBodyFunction(t *testing.T) {
	mod := &ast.ModuleNode{
		Functions: []ast.FunctionNode{fn("main", instr("nop"))},
	}
	img, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, "myunit", img.Name)
	require.Equal(t, image.ImageTypeObjectUnit, img.Type)
	require.Equal(t, image.TypeEntry{}, img.Types[0])
	require.Equal(t, image.LocalLayoutEntry{}, img.LocalLayouts[0])
	require.Len(t, img.Functions, 1)
	require.Equal(t, []byte{0x00, 0x01, 0xc0, 0x03}, img.Functions[0].Code)
	require.Equal(t, "myunit::main", img.ExportFunctions[0].FullName)
	require.Equal(t, image.Public, img.ExportFunctions[0].Visibility)
}

func TestAssembleUnitLocalFunctionPublicIndexFollowsImports(t *testing.T) {
	mod := &ast.ModuleNode{
		Imports: []ast.ImportNode{
			{FullName: "otherlib::helper"},
		},
		Functions: []ast.FunctionNode{
			fn("first", instr("nop")),
			fn("second", instr("call", ident("first"))),
		},
	}
	imported := []image.ImportModuleEntry{{Name: "otherlib"}}
	img, err := AssembleUnit(mod, "myunit", imported, nil, DefaultOptions())
	require.NoError(t, err)

	// "first" is the 0th locally-defined function; its public index is
	// imported_function_count (1) + 0 = 1, per spec invariant (3).
	secondCode := img.Functions[1].Code
	require.EqualValues(t, 1, readU32(secondCode, 2))
}

func TestAssembleUnitDataPublicIndexConcatenatesSections(t *testing.T) {
	mod := &ast.ModuleNode{
		Data: []ast.DataNode{
			{Name: "ro1", Section: image.SectionReadOnly, Value: ast.DataValue{Kind: ast.DataValueScalar, Type: image.I32, Number: 1}},
			{Name: "rw1", Section: image.SectionReadWrite, Value: ast.DataValue{Kind: ast.DataValueScalar, Type: image.I32, Number: 2}},
			{Name: "rw2", Section: image.SectionReadWrite, Value: ast.DataValue{Kind: ast.DataValueScalar, Type: image.I32, Number: 3}},
		},
		Functions: []ast.FunctionNode{fn("main", instr("data_load_i32", ident("rw2")))},
	}
	img, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.NoError(t, err)

	// rw2 is at local-section position 1 within read-write, after 1 RO
	// entry and 0 imported entries: public index = 0 + 1 + 1 = 2.
	require.EqualValues(t, 2, readU32(img.Functions[0].Code, 4))
	require.Len(t, img.DataReadOnly, 1)
	require.Len(t, img.DataReadWrite, 2)
}

func TestAssembleUnitWhenAndBlockNestedControlFlow(t *testing.T) {
	testingExpr := instr("nop")
	consequence := instr("nop")
	whenExpr := ast.Expression{
		Kind:            ast.ExprWhen,
		WhenLocals:      []ast.LocalNode{{Name: "a", Class: image.StorageI32}},
		WhenTesting:     &testingExpr,
		WhenConsequence: &consequence,
	}
	recur := ast.Expression{Kind: ast.ExprRecur, BreakTarget: ast.TargetNearestBlock}
	blockExpr := ast.Expression{Kind: ast.ExprBlock, BlockBody: &recur}
	body := ast.Expression{Kind: ast.ExprGroup, Children: []ast.Expression{whenExpr, blockExpr}}

	mod := &ast.ModuleNode{Functions: []ast.FunctionNode{fn("loopy", body)}}
	img, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, img.Functions[0].Code)
	require.Len(t, img.LocalLayouts, 2) // sentinel + the `when`'s one-local layout
}

func TestAssembleUnitExtcallOrdersLibraryBeforeUse(t *testing.T) {
	mod := &ast.ModuleNode{
		Externals: []ast.ExternalNode{
			{Library: "libc", Symbol: "puts", Params: []image.PrimitiveType{image.I32}},
		},
		Functions: []ast.FunctionNode{fn("main", instr("extcall", ident("puts")))},
	}
	externals := []image.ExternalLibraryEntry{{Name: "libc"}}
	img, err := AssembleUnit(mod, "myunit", nil, externals, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, img.ExternalFunctions, 1)
	require.Equal(t, image.RelocationExternalFunctionIndex, img.Relocations[0][0].Kind)
}

func TestAssembleUnitDuplicateFunctionNameErrors(t *testing.T) {
	mod := &ast.ModuleNode{
		Functions: []ast.FunctionNode{
			fn("dup", instr("nop")),
			fn("dup", instr("nop")),
		},
	}
	_, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.ErrorAs(t, err, new(*DuplicateIdentifierError))
}

func TestAssembleUnitUnknownMnemonicErrors(t *testing.T) {
	mod := &ast.ModuleNode{
		Functions: []ast.FunctionNode{fn("main", instr("not_a_real_instruction"))},
	}
	_, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.ErrorAs(t, err, new(*UnknownInstructionError))
}

func TestAssembleUnitCallToUndefinedIdentifierErrors(t *testing.T) {
	mod := &ast.ModuleNode{
		Functions: []ast.FunctionNode{fn("main", instr("call", ident("ghost")))},
	}
	_, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions())
	require.ErrorAs(t, err, new(*FunctionNotFoundError))
}

func TestAssembleUnitStrictModeRunsVerifier(t *testing.T) {
	mod := &ast.ModuleNode{
		Functions: []ast.FunctionNode{fn("main", instr("nop"))},
	}
	img, err := AssembleUnit(mod, "myunit", nil, nil, DefaultOptions().WithStrict(true))
	require.NoError(t, err)
	require.NotNil(t, img)
}

func TestOptionsWithVerboseAndStrictChain(t *testing.T) {
	opts := DefaultOptions().WithVerbose(true).WithStrict(true)
	require.True(t, opts.Verbose)
	require.True(t, opts.Strict)
}

func readU32(b []byte, at uint32) uint32 {
	return uint32(b[at]) | uint32(b[at+1])<<8 | uint32(b[at+2])<<16 | uint32(b[at+3])<<24
}
