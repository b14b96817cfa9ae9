// Package canon implements the Import/Export Canonicalizer (§4.8):
// normalizing full-names, deduping modules, assigning module indices, and
// building the identifier alias tables the Symbol Resolver is built from.
//
// It also carries the name-splitting helpers SPEC_FULL.md's supplemented
// features call out: get_module_name_and_name_path and
// get_namespace_and_identifier, both grounded on
// original_source/crates/assembler/src/assembler.rs, which the spec's
// distillation folded into prose ("determine the target module name...")
// without naming the helper layer.
package canon

import (
	"strings"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/typetable"
)

// selfKeyword is the literal module name a source file may use to refer
// to its own unit, ahead of canonicalization into the unit's real name.
const selfKeyword = "self"

// splitModuleAndNamePath implements the original's
// get_module_name_and_name_path: split a full name on its first "::" into
// the leading module segment and the remaining name path. A full name
// with no "::" has no module segment; module is "" and namePath is the
// whole string.
func splitModuleAndNamePath(full string) (module, namePath string) {
	if i := strings.Index(full, "::"); i >= 0 {
		return full[:i], full[i+2:]
	}
	return "", full
}

// splitNamespaceAndIdentifier implements the original's
// get_namespace_and_identifier: split a name path on its last "::" into
// an optional namespace prefix and the trailing identifier.
func splitNamespaceAndIdentifier(namePath string) (namespace, identifier string) {
	if i := strings.LastIndex(namePath, "::"); i >= 0 {
		return namePath[:i], namePath[i+2:]
	}
	return "", namePath
}

// Config is the externally-supplied configuration the canonicalizer needs
// beyond the AST itself: the unit's own name and the caller-resolved
// dependency lists.
type Config struct {
	UnitName          string
	ImportedModules   []image.ImportModuleEntry
	ExternalLibraries []image.ExternalLibraryEntry
}

// Result is everything the rest of assembly needs from canonicalization:
// the final module/library tables, the import/external entries in
// public-index order, parallel identifier lists for building the Symbol
// Resolver, and the export tables.
type Result struct {
	Modules []image.ImportModuleEntry

	ImportFunctions     []image.ImportFunctionEntry
	ImportFunctionNames []string

	// ImportData and ImportDataNames are pre-grouped by section in the
	// order {read-only, read-write, uninitialized}, matching
	// image.Image.ImportData's documented layout.
	ImportData     []image.ImportDataEntry
	ImportDataNames []string

	ExternalLibraries     []image.ExternalLibraryEntry
	ExternalFunctions     []image.ExternalFunctionEntry
	ExternalFunctionNames []string

	ExportFunctions []image.ExportEntry
	ExportData      []image.ExportEntry
}

// Canonicalize runs the canonicalizer over one unit's AST.
func Canonicalize(cfg Config, mod *ast.ModuleNode, types *typetable.Builder) (*Result, error) {
	r := &Result{
		ExternalLibraries: cfg.ExternalLibraries,
	}

	// Step 1: the synthetic self-reference module always occupies index 0.
	r.Modules = make([]image.ImportModuleEntry, 0, len(cfg.ImportedModules)+1)
	r.Modules = append(r.Modules, image.ImportModuleEntry{Name: image.SelfReferenceModuleName})
	r.Modules = append(r.Modules, cfg.ImportedModules...)

	moduleIndex := make(map[string]uint32, len(r.Modules))
	for i, m := range r.Modules {
		moduleIndex[m.Name] = uint32(i)
	}

	seenFunctionNames := map[string]bool{}
	seenData := map[image.Section]map[string]bool{
		image.SectionReadOnly:  {},
		image.SectionReadWrite: {},
		image.SectionUninit:    {},
	}

	var importDataBySection [3][]image.ImportDataEntry
	var importDataNamesBySection [3][]string

	for _, imp := range mod.Imports {
		moduleName, identifier, err := r.resolveImportTarget(cfg, imp, moduleIndex)
		if err != nil {
			return nil, err
		}
		idx := moduleIndex[moduleName]

		if imp.IsData {
			if seenData[imp.Section][identifier] {
				return nil, &asmerr.DuplicateIdentifierError{Kind: "import alias", Identifier: identifier}
			}
			seenData[imp.Section][identifier] = true
			entry := image.ImportDataEntry{
				FullName:    canonicalFullName(cfg.UnitName, moduleName, imp),
				ModuleIndex: idx,
				Section:     imp.Section,
				Class:       imp.Class,
			}
			importDataBySection[imp.Section] = append(importDataBySection[imp.Section], entry)
			importDataNamesBySection[imp.Section] = append(importDataNamesBySection[imp.Section], identifier)
		} else {
			if seenFunctionNames[identifier] {
				return nil, &asmerr.DuplicateIdentifierError{Kind: "import alias", Identifier: identifier}
			}
			seenFunctionNames[identifier] = true
			typeIdx := types.Intern(imp.Params, imp.Results)
			r.ImportFunctions = append(r.ImportFunctions, image.ImportFunctionEntry{
				FullName:    canonicalFullName(cfg.UnitName, moduleName, imp),
				ModuleIndex: idx,
				TypeIndex:   typeIdx,
			})
			r.ImportFunctionNames = append(r.ImportFunctionNames, identifier)
		}
	}

	for _, sec := range []image.Section{image.SectionReadOnly, image.SectionReadWrite, image.SectionUninit} {
		r.ImportData = append(r.ImportData, importDataBySection[sec]...)
		r.ImportDataNames = append(r.ImportDataNames, importDataNamesBySection[sec]...)
	}

	libraryIndex := make(map[string]uint32, len(cfg.ExternalLibraries))
	for i, lib := range cfg.ExternalLibraries {
		libraryIndex[lib.Name] = uint32(i)
	}

	seenExternal := map[string]bool{}
	for _, ext := range mod.Externals {
		libIdx, ok := libraryIndex[ext.Library]
		if !ok {
			return nil, &asmerr.ExternalLibraryNotFoundError{Name: ext.Library}
		}
		identifier := ext.Alias
		if identifier == "" {
			identifier = ext.Symbol
		}
		if seenExternal[identifier] {
			return nil, &asmerr.DuplicateIdentifierError{Kind: "external function", Identifier: identifier}
		}
		seenExternal[identifier] = true

		typeIdx := types.Intern(ext.Params, ext.Results)
		r.ExternalFunctions = append(r.ExternalFunctions, image.ExternalFunctionEntry{
			LibraryIndex: libIdx,
			SymbolName:   ext.Symbol,
			TypeIndex:    typeIdx,
		})
		r.ExternalFunctionNames = append(r.ExternalFunctionNames, identifier)
	}

	// Step 4: exports for locally defined functions and data, in source
	// order, tagged with their declared visibility.
	seenLocalFunction := map[string]bool{}
	for _, fn := range mod.Functions {
		if seenLocalFunction[fn.Name] {
			return nil, &asmerr.DuplicateIdentifierError{Kind: "function", Identifier: fn.Name}
		}
		seenLocalFunction[fn.Name] = true
		r.ExportFunctions = append(r.ExportFunctions, image.ExportEntry{
			FullName:   cfg.UnitName + "::" + fn.Name,
			Visibility: fn.Visibility,
			IsData:     false,
		})
	}

	seenLocalData := map[image.Section]map[string]bool{
		image.SectionReadOnly:  {},
		image.SectionReadWrite: {},
		image.SectionUninit:    {},
	}
	for _, d := range mod.Data {
		if seenLocalData[d.Section][d.Name] {
			return nil, &asmerr.DuplicateIdentifierError{Kind: "data", Identifier: d.Name}
		}
		seenLocalData[d.Section][d.Name] = true
		r.ExportData = append(r.ExportData, image.ExportEntry{
			FullName:   cfg.UnitName + "::" + d.Name,
			Visibility: d.Visibility,
			Section:    d.Section,
			IsData:     true,
		})
	}

	return r, nil
}

// resolveImportTarget determines the target module name and the in-unit
// identifier for one import declaration, per spec §4.8 step 2.
func (r *Result) resolveImportTarget(cfg Config, imp ast.ImportNode, moduleIndex map[string]uint32) (moduleName, identifier string, err error) {
	declaredModule, namePath := splitModuleAndNamePath(imp.FullName)

	moduleName = imp.From
	if moduleName == "" {
		moduleName = declaredModule
	}
	if moduleName == "" || moduleName == selfKeyword || moduleName == cfg.UnitName {
		moduleName = image.SelfReferenceModuleName
	}

	if _, ok := moduleIndex[moduleName]; !ok {
		return "", "", &asmerr.ImportModuleNotFoundError{Name: moduleName}
	}

	_, identifier = splitNamespaceAndIdentifier(namePath)
	if imp.Alias != "" {
		identifier = imp.Alias
	}
	return moduleName, identifier, nil
}

// canonicalFullName rewrites a self-reference target so the stored full
// name is always `<unit-name>::<rest>` explicitly, per spec §4.8 step 2.
func canonicalFullName(unitName, resolvedModule string, imp ast.ImportNode) string {
	_, namePath := splitModuleAndNamePath(imp.FullName)
	if resolvedModule == image.SelfReferenceModuleName {
		return unitName + "::" + namePath
	}
	return resolvedModule + "::" + namePath
}
