// Package assembler is the back end of an assembler for a register-less,
// stack-oriented virtual machine. AssembleUnit consumes a parsed, typed
// AST of one compilation unit and produces a self-contained object image:
// type tables, function bytecode, data segments, import/export tables,
// and a relocation list per function.
//
// The entry point composes, leaves-first, the components documented
// throughout this module's sub-packages: internal/asmbuf (Bytecode
// Writer), internal/typetable and internal/localtable (interning
// builders), internal/canon (Import/Export Canonicalizer),
// internal/resolver (Symbol Resolver), internal/controlflow
// (Control-Flow Stack), internal/emitter (Expression Emitter and
// Instruction Encoder), and internal/dataseg (Data-Segment Builder).
package assembler

import (
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/canon"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/controlflow"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/dataseg"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/emitter"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/localtable"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/resolver"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/typetable"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/verify"
)

// AssembleUnit lowers one compilation unit's AST into its object image.
// unitName is the unit's own name; importedModules and externalLibraries
// are the caller-resolved dependency lists (declared modules/libraries the
// unit's own import/external declarations are checked against). On error
// no partial image is returned.
func AssembleUnit(mod *ast.ModuleNode, unitName string, importedModules []image.ImportModuleEntry, externalLibraries []image.ExternalLibraryEntry, opts Options) (*image.Image, error) {
	setVerbosity(opts.Verbose)
	logger.WithField("unit", unitName).Debug("assembling compilation unit")

	types := typetable.New()
	locals := localtable.New()

	canonResult, err := canon.Canonicalize(canon.Config{
		UnitName:          unitName,
		ImportedModules:   importedModules,
		ExternalLibraries: externalLibraries,
	}, mod, types)
	if err != nil {
		return nil, err
	}

	dataReadOnly, dataReadWrite, dataUninit, err := dataseg.BuildSections(mod.Data)
	if err != nil {
		return nil, err
	}
	roNames, rwNames, uninitNames := dataNamesBySection(mod.Data)

	functionNames := append(append([]string(nil), canonResult.ImportFunctionNames...), localFunctionNames(mod.Functions)...)
	dataNames := append([]string(nil), canonResult.ImportDataNames...)
	dataNames = append(dataNames, roNames...)
	dataNames = append(dataNames, rwNames...)
	dataNames = append(dataNames, uninitNames...)

	res := resolver.New(functionNames, dataNames, canonResult.ExternalFunctionNames)

	functions := make([]image.FunctionEntry, len(mod.Functions))
	relocations := make([][]image.Relocation, len(mod.Functions))

	for i, fn := range mod.Functions {
		logger.WithField("function", fn.Name).Trace("emitting function body")

		paramTypes := make([]image.PrimitiveType, len(fn.Params))
		for j, p := range fn.Params {
			paramTypes[j] = p.Type
		}
		typeIndex := types.Intern(paramTypes, fn.Results)
		layoutIndex := locals.Intern(emitter.LocalSlots(fn.Params, fn.Locals))

		control := controlflow.New(emitter.LocalNames(fn.Params, fn.Locals))
		em := emitter.New(fn.Name, control, types, locals, res)

		code, relocs, err := em.EmitFunctionBody(fn.Body)
		if err != nil {
			return nil, err
		}

		functions[i] = image.FunctionEntry{TypeIndex: typeIndex, LocalLayoutIndex: layoutIndex, Code: code}
		relocations[i] = relocs
	}

	img := &image.Image{
		Name: unitName,
		Type: image.ImageTypeObjectUnit,

		Types:        types.Entries(),
		LocalLayouts: locals.Entries(),
		Functions:    functions,

		DataReadOnly:  dataReadOnly,
		DataReadWrite: dataReadWrite,
		DataUninit:    dataUninit,

		ImportModules:   canonResult.Modules,
		ImportFunctions: canonResult.ImportFunctions,
		ImportData:      canonResult.ImportData,

		ExportFunctions: canonResult.ExportFunctions,
		ExportData:      canonResult.ExportData,

		Relocations: relocations,

		ExternalLibraries: canonResult.ExternalLibraries,
		ExternalFunctions: canonResult.ExternalFunctions,
	}

	if opts.Strict {
		if violations := verify.Check(img); len(violations) > 0 {
			return nil, violations[0]
		}
	}

	logger.WithField("unit", unitName).Debug("assembly complete")
	return img, nil
}

// localFunctionNames returns locally-defined function identifiers in
// source order, the order in which they occupy the tail of the function
// public-index space (spec §3 invariant (3)).
func localFunctionNames(fns []ast.FunctionNode) []string {
	names := make([]string, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
	}
	return names
}

// dataNamesBySection returns locally-declared data identifiers grouped by
// section, in source order within each group, mirroring
// dataseg.BuildSections' partitioning so the name lists stay index-aligned
// with the DataEntry slices they name.
func dataNamesBySection(nodes []ast.DataNode) (readOnly, readWrite, uninit []string) {
	for _, n := range nodes {
		switch n.Section {
		case image.SectionReadOnly:
			readOnly = append(readOnly, n.Name)
		case image.SectionReadWrite:
			readWrite = append(readWrite, n.Name)
		case image.SectionUninit:
			uninit = append(uninit, n.Name)
		}
	}
	return readOnly, readWrite, uninit
}
