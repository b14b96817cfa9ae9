// Package emitter implements the Expression Emitter (§4.5) and the
// Instruction Encoder (§4.6): the recursive descent over a function's
// expression tree that drives the Bytecode Writer and Control-Flow Stack.
//
// Grounded on the teacher's internal/engine/compiler.compiler interface:
// a closed dispatch over instruction mnemonics, one doc comment per
// opcode family, each entry responsible for validating its own argument
// shapes before emitting.
package emitter

import (
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmbuf"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/controlflow"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/localtable"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/resolver"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/typetable"
)

// Emitter lowers one function's expression tree into its code blob and
// relocation list. A fresh Emitter is used per function.
type Emitter struct {
	Function string // for error diagnostics

	buf     *asmbuf.Buffer
	control *controlflow.Stack
	types   *typetable.Builder
	locals  *localtable.Builder
	res     *resolver.Resolver

	relocations []image.Relocation
}

// New returns an Emitter ready to lower the body of a function whose
// control-flow stack has already been seeded with its Function frame
// (parameters followed by function-level locals).
func New(function string, control *controlflow.Stack, types *typetable.Builder, locals *localtable.Builder, res *resolver.Resolver) *Emitter {
	return &Emitter{
		Function: function,
		buf:      asmbuf.NewBuffer(),
		control:  control,
		types:    types,
		locals:   locals,
		res:      res,
	}
}

// EmitFunctionBody lowers a function's top-level body expression,
// appending the implicit closing `end` and popping the Function frame.
// On return the control-flow stack must be empty; if it is not,
// IncompleteControlFlowError reports the remaining nested scopes.
func (e *Emitter) EmitFunctionBody(body ast.Expression) ([]byte, []image.Relocation, error) {
	if err := e.Emit(body); err != nil {
		return nil, nil, err
	}
	e.buf.WriteOpcode(asmbuf.OpEnd)
	if err := e.control.Pop(e.buf, e.buf.CurrentAddress()); err != nil {
		return nil, nil, err
	}
	if e.control.Len() != 0 {
		return nil, nil, &asmerr.IncompleteControlFlowError{Path: e.control.Path(), Function: e.Function}
	}
	return e.buf.Bytes(), e.relocations, nil
}

// Emit lowers one expression node, dispatching on its Kind.
func (e *Emitter) Emit(expr ast.Expression) error {
	switch expr.Kind {
	case ast.ExprGroup:
		for _, child := range expr.Children {
			if err := e.Emit(child); err != nil {
				return err
			}
		}
		return nil
	case ast.ExprInstruction:
		return e.emitInstruction(expr)
	case ast.ExprWhen:
		return e.emitWhen(expr)
	case ast.ExprIf:
		return e.emitIf(expr)
	case ast.ExprBlock:
		return e.emitBlock(expr)
	case ast.ExprBreak:
		return e.emitBreak(expr)
	case ast.ExprRecur:
		return e.emitRecur(expr)
	default:
		return &asmerr.UnknownInstructionError{Name: "(unrecognized expression kind)", Function: e.Function}
	}
}

func (e *Emitter) addRelocation(offset uint32, kind image.RelocationKind) {
	e.relocations = append(e.relocations, image.Relocation{Offset: offset, Kind: kind})
}

// LocalSlots converts parameter and local declarations into the ordered
// slot list the Local-Layout Table Builder expects: parameter-derived
// numeric slots followed by declared-local slots, in declaration order,
// with no reordering (spec §4.2). Exported so callers assembling a
// function's own top-level local-layout index (as opposed to a nested
// block's) can reuse the same conversion the emitter applies internally.
func LocalSlots(params []ast.ParamNode, locals []ast.LocalNode) []image.LocalSlot {
	slots := make([]image.LocalSlot, 0, len(params)+len(locals))
	for _, p := range params {
		slots = append(slots, image.LocalSlot{Class: primitiveStorageClass(p.Type), Length: p.Type.Size(), Alignment: p.Type.Size()})
	}
	for _, l := range locals {
		align := l.Alignment
		length := l.Length
		if l.Class != image.StorageBytes {
			length = storageSize(l.Class)
			align = length
		} else if align == 0 {
			align = 1
		}
		slots = append(slots, image.LocalSlot{Class: l.Class, Length: length, Alignment: align})
	}
	return slots
}

// LocalNames mirrors LocalSlots, producing the parallel name list the
// Control-Flow Stack uses for lexical-scope lookups.
func LocalNames(params []ast.ParamNode, locals []ast.LocalNode) []string {
	names := make([]string, 0, len(params)+len(locals))
	for _, p := range params {
		names = append(names, p.Name)
	}
	for _, l := range locals {
		names = append(names, l.Name)
	}
	return names
}

func primitiveStorageClass(t image.PrimitiveType) image.StorageClass {
	switch t {
	case image.I32:
		return image.StorageI32
	case image.I64:
		return image.StorageI64
	case image.F32:
		return image.StorageF32
	case image.F64:
		return image.StorageF64
	default:
		return image.StorageI32
	}
}

func storageSize(c image.StorageClass) uint32 {
	switch c {
	case image.StorageI32, image.StorageF32:
		return 4
	case image.StorageI64, image.StorageF64:
		return 8
	default:
		return 0
	}
}
