package controlflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmbuf"
)

func TestResolveLocalFindsParamsAndLocals(t *testing.T) {
	s := New([]string{"num", "sum"})
	depth, slot, err := s.ResolveLocal("sum")
	require.NoError(t, err)
	require.Equal(t, 0, depth)
	require.Equal(t, 1, slot)
}

func TestResolveLocalOuterScope(t *testing.T) {
	s := New([]string{"num"})
	s.Push(10, BlockNez, []string{"a", "b"})

	depth, slot, err := s.ResolveLocal("num")
	require.NoError(t, err)
	require.Equal(t, 1, depth)
	require.Equal(t, 0, slot)

	depth, slot, err = s.ResolveLocal("b")
	require.NoError(t, err)
	require.Equal(t, 0, depth)
	require.Equal(t, 1, slot)
}

func TestResolveLocalRejectsShadowing(t *testing.T) {
	s := New([]string{"x"})
	s.Push(10, Block, []string{"x"})

	_, _, err := s.ResolveLocal("x")
	require.Error(t, err)
}

func TestResolveLocalUnknown(t *testing.T) {
	s := New([]string{"x"})
	_, _, err := s.ResolveLocal("missing")
	require.Error(t, err)
}

func TestPopPatchesBlockNezAndBreaks(t *testing.T) {
	buf := asmbuf.NewBuffer()
	s := New(nil)

	at := buf.WriteOpcodeI32I32(asmbuf.OpBlockNez, 0, 0)
	s.Push(at, BlockNez, []string{"a", "b"})

	breakAt := buf.WriteOpcodeI16I32(asmbuf.OpBreak, 0, 0)
	s.RecordBreak(Break, breakAt, 0)

	end := buf.WriteOpcode(asmbuf.OpEnd)
	afterEnd := end + 2

	require.NoError(t, s.Pop(buf, afterEnd))

	want := int32(afterEnd - at)
	got := readI32(buf.Bytes(), at+6)
	require.Equal(t, want, got)

	gotBreak := readI32(buf.Bytes(), breakAt+4)
	require.Equal(t, int32(afterEnd-breakAt), gotBreak)
}

func TestPopPatchesBreakAltAgainstBlockAlt(t *testing.T) {
	buf := asmbuf.NewBuffer()
	s := New(nil)

	at := buf.WriteOpcodeI32I32I32(asmbuf.OpBlockAlt, 0, 0, 0)
	s.Push(at, BlockAlt, nil)

	breakAltAt := buf.WriteOpcodeI16I32(asmbuf.OpBreakAlt, 0, 0)
	s.RecordBreak(BreakAlt, breakAltAt, 0)

	end := buf.WriteOpcode(asmbuf.OpEnd)
	afterEnd := end + 2

	require.NoError(t, s.Pop(buf, afterEnd))

	wantBlockAlt := int32((breakAltAt + asmbuf.BreakAltInstructionLength) - at)
	gotBlockAlt := readI32(buf.Bytes(), at+10)
	require.Equal(t, wantBlockAlt, gotBlockAlt)
}

func TestRecordBreakToFunctionFrameNeedsNoPatch(t *testing.T) {
	s := New(nil)
	s.Push(10, Block, nil)

	// depth 1 from the Block frame reaches the Function frame.
	s.RecordBreak(Break, 20, 1)

	require.Empty(t, s.frames[0].breaks)
}

func TestDepthToNearestBlockErrorsWhenAbsent(t *testing.T) {
	s := New(nil)
	_, err := s.DepthToNearestBlock()
	require.Error(t, err)
}

func TestRecurTarget(t *testing.T) {
	s := New(nil)
	s.Push(0x10, Block, nil)

	depth, startOffset, err := s.RecurTarget(0x40)
	require.NoError(t, err)
	require.Equal(t, 0, depth)
	require.EqualValues(t, 0x40-0x10-asmbuf.BlockInstructionLength, startOffset)
}

func TestPathSkipsFunctionFrame(t *testing.T) {
	s := New(nil)
	s.Push(0, BlockAlt, nil)
	s.Push(0, Block, nil)
	s.Push(0, BlockNez, nil)

	require.Equal(t, "if >> block >> when", s.Path())
}

func readI32(b []byte, at uint32) int32 {
	return int32(b[at]) | int32(b[at+1])<<8 | int32(b[at+2])<<16 | int32(b[at+3])<<24
}
