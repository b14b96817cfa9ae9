package canon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/typetable"
)

func TestSplitModuleAndNamePath(t *testing.T) {
	mod, path := splitModuleAndNamePath("std::collections::stack")
	require.Equal(t, "std", mod)
	require.Equal(t, "collections::stack", path)

	mod, path = splitModuleAndNamePath("bare")
	require.Equal(t, "", mod)
	require.Equal(t, "bare", path)
}

func TestSplitNamespaceAndIdentifier(t *testing.T) {
	ns, id := splitNamespaceAndIdentifier("collections::stack")
	require.Equal(t, "collections", ns)
	require.Equal(t, "stack", id)

	ns, id = splitNamespaceAndIdentifier("stack")
	require.Equal(t, "", ns)
	require.Equal(t, "stack", id)
}

func TestCanonicalizeSelfReferenceAlwaysAtIndexZero(t *testing.T) {
	types := typetable.New()
	result, err := Canonicalize(Config{UnitName: "mylib"}, &ast.ModuleNode{}, types)
	require.NoError(t, err)
	require.Equal(t, image.SelfReferenceModuleName, result.Modules[0].Name)
}

func TestCanonicalizeImportFunction(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Imports: []ast.ImportNode{
			{FullName: "std::add", Params: []image.PrimitiveType{image.I32}, Results: []image.PrimitiveType{image.I32}},
		},
	}
	cfg := Config{
		UnitName:        "mylib",
		ImportedModules: []image.ImportModuleEntry{{Name: "std"}},
	}
	result, err := Canonicalize(cfg, modNode, types)
	require.NoError(t, err)
	require.Len(t, result.ImportFunctions, 1)
	require.Equal(t, "std::add", result.ImportFunctions[0].FullName)
	require.EqualValues(t, 1, result.ImportFunctions[0].ModuleIndex)
	require.Equal(t, []string{"add"}, result.ImportFunctionNames)
}

func TestCanonicalizeSelfReferencedImportRewritesFullName(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Imports: []ast.ImportNode{
			{FullName: "self::helper", Params: nil, Results: nil},
		},
	}
	cfg := Config{UnitName: "mylib"}
	result, err := Canonicalize(cfg, modNode, types)
	require.NoError(t, err)
	require.Equal(t, "mylib::helper", result.ImportFunctions[0].FullName)
	require.EqualValues(t, 0, result.ImportFunctions[0].ModuleIndex)
}

func TestCanonicalizeUnknownModuleErrors(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Imports: []ast.ImportNode{{FullName: "unknown::add"}},
	}
	_, err := Canonicalize(Config{UnitName: "mylib"}, modNode, types)
	require.ErrorAs(t, err, new(*asmerr.ImportModuleNotFoundError))
}

func TestCanonicalizeDataGroupedBySection(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Imports: []ast.ImportNode{
			{FullName: "std::uninit_thing", IsData: true, Section: image.SectionUninit},
			{FullName: "std::ro_thing", IsData: true, Section: image.SectionReadOnly},
		},
	}
	cfg := Config{UnitName: "mylib", ImportedModules: []image.ImportModuleEntry{{Name: "std"}}}
	result, err := Canonicalize(cfg, modNode, types)
	require.NoError(t, err)
	require.Equal(t, []string{"ro_thing", "uninit_thing"}, result.ImportDataNames)
}

func TestCanonicalizeExternalFunction(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Externals: []ast.ExternalNode{{Library: "libc", Symbol: "malloc", Params: []image.PrimitiveType{image.I32}, Results: []image.PrimitiveType{image.I32}}},
	}
	cfg := Config{UnitName: "mylib", ExternalLibraries: []image.ExternalLibraryEntry{{Name: "libc"}}}
	result, err := Canonicalize(cfg, modNode, types)
	require.NoError(t, err)
	require.Equal(t, []string{"malloc"}, result.ExternalFunctionNames)
	require.EqualValues(t, 0, result.ExternalFunctions[0].LibraryIndex)
}

func TestCanonicalizeUnknownLibraryErrors(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Externals: []ast.ExternalNode{{Library: "missing", Symbol: "f"}},
	}
	_, err := Canonicalize(Config{UnitName: "mylib"}, modNode, types)
	require.ErrorAs(t, err, new(*asmerr.ExternalLibraryNotFoundError))
}

func TestCanonicalizeExportsInSourceOrder(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Functions: []ast.FunctionNode{
			{Name: "foo", Visibility: image.Public},
			{Name: "bar", Visibility: image.Private},
		},
	}
	result, err := Canonicalize(Config{UnitName: "mylib"}, modNode, types)
	require.NoError(t, err)
	require.Equal(t, "mylib::foo", result.ExportFunctions[0].FullName)
	require.Equal(t, image.Public, result.ExportFunctions[0].Visibility)
	require.Equal(t, image.Private, result.ExportFunctions[1].Visibility)
}

func TestCanonicalizeDuplicateFunctionNameErrors(t *testing.T) {
	types := typetable.New()
	modNode := &ast.ModuleNode{
		Functions: []ast.FunctionNode{{Name: "foo"}, {Name: "foo"}},
	}
	_, err := Canonicalize(Config{UnitName: "mylib"}, modNode, types)
	require.ErrorAs(t, err, new(*asmerr.DuplicateIdentifierError))
}
