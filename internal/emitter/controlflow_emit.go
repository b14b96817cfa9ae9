package emitter

import (
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmbuf"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/controlflow"
)

// emitWhen lowers a `when testing ~locals? consequence` node: a
// conditionally-entered, non-value-producing block with its own local
// scope.
func (e *Emitter) emitWhen(expr ast.Expression) error {
	if err := e.Emit(*expr.WhenTesting); err != nil {
		return err
	}

	layoutIndex := e.locals.Intern(LocalSlots(nil, expr.WhenLocals))

	addr := e.buf.WriteOpcodeI32I32(asmbuf.OpBlockNez, int32(layoutIndex), 0)
	e.addRelocation(addr+2, image.RelocationLocalLayoutIndex)

	e.control.Push(addr, controlflow.BlockNez, LocalNames(nil, expr.WhenLocals))

	if err := e.Emit(*expr.WhenConsequence); err != nil {
		return err
	}

	e.buf.WriteOpcode(asmbuf.OpEnd)
	return e.control.Pop(e.buf, e.buf.CurrentAddress())
}

// emitIf lowers an `if -> results testing consequence alternative` node:
// a value-producing two-armed conditional.
func (e *Emitter) emitIf(expr ast.Expression) error {
	if err := e.Emit(*expr.IfTesting); err != nil {
		return err
	}

	typeIndex := e.types.Intern(nil, expr.IfResults)
	const emptyLocalLayoutIndex = 0 // the sentinel at index 0 is always empty

	addr := e.buf.WriteOpcode(asmbuf.OpBlockAlt)
	e.buf.WriteRawI32(int32(typeIndex))
	e.buf.WriteRawI32(emptyLocalLayoutIndex)
	e.buf.WriteRawI32(0) // next_offset stub
	e.addRelocation(addr+2, image.RelocationTypeIndex)
	e.addRelocation(addr+6, image.RelocationLocalLayoutIndex)

	e.control.Push(addr, controlflow.BlockAlt, nil)

	if err := e.Emit(*expr.IfConsequence); err != nil {
		return err
	}

	breakAltAddr := e.buf.WriteOpcodeI16I32(asmbuf.OpBreakAlt, 0, 0)
	e.control.RecordBreak(controlflow.BreakAlt, breakAltAddr, 0)

	if err := e.Emit(*expr.IfAlternative); err != nil {
		return err
	}

	e.buf.WriteOpcode(asmbuf.OpEnd)
	return e.control.Pop(e.buf, e.buf.CurrentAddress())
}

// emitBlock lowers a `block (params) -> results ~locals? body` node: a
// value-producing, recur-able loop body.
func (e *Emitter) emitBlock(expr ast.Expression) error {
	for _, bp := range expr.BlockParams {
		if err := e.Emit(bp.Value); err != nil {
			return err
		}
	}

	params := make([]ast.ParamNode, len(expr.BlockParams))
	paramTypes := make([]image.PrimitiveType, len(expr.BlockParams))
	for i, bp := range expr.BlockParams {
		params[i] = bp.Param
		paramTypes[i] = bp.Param.Type
	}

	typeIndex := e.types.Intern(paramTypes, expr.BlockResults)
	layoutIndex := e.locals.Intern(LocalSlots(params, expr.BlockLocals))

	// `block` reserves a padding word ahead of its two index fields so
	// that its total length (12 bytes, per BlockInstructionLength) lines
	// up with recur's start-offset arithmetic.
	addr := e.buf.WriteOpcode(asmbuf.OpBlock)
	e.buf.WriteRawI16(0)
	e.buf.WriteRawI32(int32(typeIndex))
	e.buf.WriteRawI32(int32(layoutIndex))
	e.addRelocation(addr+4, image.RelocationTypeIndex)
	e.addRelocation(addr+8, image.RelocationLocalLayoutIndex)

	e.control.Push(addr, controlflow.Block, LocalNames(params, expr.BlockLocals))

	if err := e.Emit(*expr.BlockBody); err != nil {
		return err
	}

	e.buf.WriteOpcode(asmbuf.OpEnd)
	return e.control.Pop(e.buf, e.buf.CurrentAddress())
}

// emitBreak lowers a `break(v…)` / `break_fn(v…)` node.
func (e *Emitter) emitBreak(expr ast.Expression) error {
	for _, v := range expr.BreakValues {
		if err := e.Emit(v); err != nil {
			return err
		}
	}

	var depth int
	var err error
	if expr.BreakTarget == ast.TargetFunction {
		depth = e.control.DepthToFunction()
	} else {
		depth, err = e.control.DepthToNearestBlock()
		if err != nil {
			return err
		}
	}

	addr := e.buf.WriteOpcodeI16I32(asmbuf.OpBreak, int16(depth), 0)
	e.control.RecordBreak(controlflow.Break, addr, depth)
	return nil
}

// emitRecur lowers a `recur(v…)` / `recur_fn(v…)` node. Its own address
// is 4-byte aligned before writing, per spec §6; targeting the Function
// frame writes a literal 0 start-offset that the VM is documented to
// ignore.
func (e *Emitter) emitRecur(expr ast.Expression) error {
	for _, v := range expr.BreakValues {
		if err := e.Emit(v); err != nil {
			return err
		}
	}

	e.buf.AlignTo4()

	var depth int
	var startOffset int32
	if expr.BreakTarget == ast.TargetFunction {
		depth = e.control.DepthToFunction()
	} else {
		var err error
		depth, startOffset, err = e.control.RecurTarget(e.buf.CurrentAddress())
		if err != nil {
			return err
		}
	}

	e.buf.WriteOpcodeI16I32(asmbuf.OpRecur, int16(depth), startOffset)
	return nil
}
