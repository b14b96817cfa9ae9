// Package controlflow implements the Control-Flow Stack (§4.4): a LIFO
// stack of scope frames carrying local-name visibility and the
// break-sites awaiting a patched next_offset once their enclosing scope
// closes.
package controlflow

import (
	"strings"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmbuf"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
)

// FrameKind distinguishes the four kinds of scope a frame can represent.
type FrameKind byte

const (
	Function FrameKind = iota
	Block
	BlockNez
	BlockAlt
)

func (k FrameKind) String() string {
	switch k {
	case Function:
		return "function"
	case Block:
		return "block"
	case BlockNez:
		return "when"
	case BlockAlt:
		return "if"
	default:
		return "unknown"
	}
}

// BreakKind distinguishes a structured break from the break half of an
// if/else ("break_alt").
type BreakKind byte

const (
	Break BreakKind = iota
	BreakAlt
)

type breakSite struct {
	kind    BreakKind
	address uint32
}

type frame struct {
	address uint32
	kind    FrameKind
	names   []string
	breaks  []breakSite
}

// Stack is the control-flow stack for a single function's emission. It is
// initialized with one Function frame and must be empty again once the
// function's top-level expression has finished emitting.
type Stack struct {
	frames []*frame
}

// New returns a Stack seeded with a single Function frame at address 0,
// whose visible names are the function's parameters followed by its
// function-level locals.
func New(names []string) *Stack {
	return &Stack{frames: []*frame{{address: 0, kind: Function, names: names}}}
}

// Len reports how many frames are currently on the stack.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Push appends a new frame.
func (s *Stack) Push(address uint32, kind FrameKind, names []string) {
	s.frames = append(s.frames, &frame{address: address, kind: kind, names: names})
}

// Pop removes the top frame, patching every outstanding stub it owns.
// `addressAfterEnd` is the byte address immediately following the frame's
// closing `end` instruction.
//
// For a BlockNez frame, the frame's own `block_nez` instruction is
// patched with (addressAfterEnd - frame.address). For every pending
// break-site (_, addr) recorded against this frame, (addressAfterEnd -
// addr) is patched into that site's next_offset. For BreakAlt sites, the
// frame's `block_alt` instruction is additionally patched with
// ((addr + BreakAltInstructionLength) - frame.address).
func (s *Stack) Pop(w *asmbuf.Buffer, addressAfterEnd uint32) error {
	n := len(s.frames)
	if n == 0 {
		return errEmptyStack
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]

	if f.kind == BlockNez {
		w.PatchBlockNezNextOffset(f.address, int32(addressAfterEnd-f.address))
	}
	for _, site := range f.breaks {
		w.PatchBreakNextOffset(site.address, int32(addressAfterEnd-site.address))
		if site.kind == BreakAlt {
			w.PatchBlockAltNextOffset(f.address, int32((site.address+asmbuf.BreakAltInstructionLength)-f.address))
		}
	}
	return nil
}

var errEmptyStack = &stackError{"pop from empty control-flow stack"}

type stackError struct{ msg string }

func (e *stackError) Error() string { return e.msg }

// RecordBreak inserts a break-site into the frame `depth` levels below the
// top of the stack. If that frame is the Function frame, the site
// requires no patching (the VM ignores the field for function-targeting
// breaks) and is silently dropped.
func (s *Stack) RecordBreak(kind BreakKind, address uint32, depth int) {
	idx := len(s.frames) - 1 - depth
	if idx < 0 || idx >= len(s.frames) {
		return
	}
	if s.frames[idx].kind == Function {
		return
	}
	s.frames[idx].breaks = append(s.frames[idx].breaks, breakSite{kind: kind, address: address})
}

// DepthToFunction returns the depth of the Function frame from the top of
// the stack.
func (s *Stack) DepthToFunction() int {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == Function {
			return len(s.frames) - 1 - i
		}
	}
	return -1
}

// DepthToNearestBlock returns the depth of the topmost Block frame, or an
// error if none exists on the stack.
func (s *Stack) DepthToNearestBlock() (int, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == Block {
			return len(s.frames) - 1 - i, nil
		}
	}
	return 0, &stackError{"no enclosing block frame for break/recur"}
}

// RecurTarget returns (depth, startOffset) for a `recur` emitted at
// `addressOfRecur`, targeting the nearest Block frame.
// startOffset = addressOfRecur - blockAddress - BlockInstructionLength.
func (s *Stack) RecurTarget(addressOfRecur uint32) (depth int, startOffset int32, err error) {
	depth, err = s.DepthToNearestBlock()
	if err != nil {
		return 0, 0, err
	}
	idx := len(s.frames) - 1 - depth
	blockAddress := s.frames[idx].address
	startOffset = int32(addressOfRecur) - int32(blockAddress) - asmbuf.BlockInstructionLength
	return depth, startOffset, nil
}

// ResolveLocal walks the stack top-down searching each frame's name list
// for `name`, returning (depth, slotIndex). It is an error for the name to
// appear in zero frames, or in two-or-more frames simultaneously
// reachable from the top (shadowing is forbidden by spec §9).
func (s *Stack) ResolveLocal(name string) (depth int, slotIndex int, err error) {
	found := false
	for i := len(s.frames) - 1; i >= 0; i-- {
		for slot, n := range s.frames[i].names {
			if n == name {
				if found {
					return 0, 0, &asmerr.LocalVariableNotFoundError{Name: name}
				}
				found = true
				depth = len(s.frames) - 1 - i
				slotIndex = slot
			}
		}
	}
	if !found {
		return 0, 0, &asmerr.LocalVariableNotFoundError{Name: name}
	}
	return depth, slotIndex, nil
}

// Path renders the remaining nested frames from root to leaf, e.g.
// "if >> block >> when", for IncompleteControlFlowError diagnostics. The
// outermost Function frame is never shown: a function always carries one,
// so it adds no diagnostic value.
func (s *Stack) Path() string {
	start := 0
	if len(s.frames) > 0 && s.frames[0].kind == Function {
		start = 1
	}
	parts := make([]string, 0, len(s.frames)-start)
	for _, f := range s.frames[start:] {
		parts = append(parts, f.kind.String())
	}
	return strings.Join(parts, " >> ")
}
