// Package verify implements a post-assembly structural checker
// (SPEC_FULL.md's supplemented feature #4): a pass over a finished
// image.Image confirming two of the universal invariants spec.md §8
// lists (the empty sentinel entries and relocation-value bounds),
// independent of the assembly pipeline that produced the image. It does
// not check public-index arithmetic or decode bytecode for unpatched
// stubs.
//
// It exists because, per spec.md §9's design notes, relocation
// emission is "tightly coupled to encoding" by convention rather than
// by a type system that enforces it — a single mistaken call site could
// drift an index out of its declared space without anything else
// noticing. This package is the independent check that would catch it.
package verify

import (
	"encoding/binary"
	"fmt"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
)

// Violation is one structural invariant failure.
type Violation struct {
	Description string
}

func (v *Violation) Error() string { return v.Description }

// Check runs every invariant check against img and returns every
// violation found. A nil/empty result means img is structurally sound.
func Check(img *image.Image) []error {
	var violations []error
	violations = append(violations, checkSentinels(img)...)
	violations = append(violations, checkRelocations(img)...)
	return violations
}

// checkSentinels verifies spec.md §8's first invariant: the first
// type-table entry is the empty signature and the first local-layout
// entry is empty.
func checkSentinels(img *image.Image) []error {
	var out []error
	if len(img.Types) == 0 || !img.Types[0].Equal(image.TypeEntry{}) {
		out = append(out, &Violation{"type table is missing its empty sentinel entry at index 0"})
	}
	if len(img.LocalLayouts) == 0 || !img.LocalLayouts[0].Equal(image.LocalLayoutEntry{}) {
		out = append(out, &Violation{"local-layout table is missing its empty sentinel entry at index 0"})
	}
	return out
}

// checkRelocations verifies spec.md §8's relocation-bounds invariant:
// for every relocation entry, reading the four little-endian bytes at
// its offset yields a value strictly less than the size of the index
// space its kind names.
func checkRelocations(img *image.Image) []error {
	var out []error
	typeCount := uint32(len(img.Types))
	localLayoutCount := uint32(len(img.LocalLayouts))
	functionCount := uint32(img.FunctionPublicIndexCount())
	dataCount := uint32(img.DataPublicIndexCount())
	externalCount := uint32(len(img.ExternalFunctions))

	for fi, fn := range img.Functions {
		if fi >= len(img.Relocations) {
			out = append(out, &Violation{fmt.Sprintf("function %d has no relocation list entry", fi)})
			continue
		}
		for _, r := range img.Relocations[fi] {
			if r.Offset+4 > uint32(len(fn.Code)) {
				out = append(out, &Violation{fmt.Sprintf("function %d: relocation at offset %d overruns its %d-byte code blob", fi, r.Offset, len(fn.Code))})
				continue
			}
			value := binary.LittleEndian.Uint32(fn.Code[r.Offset : r.Offset+4])

			var bound uint32
			switch r.Kind {
			case image.RelocationTypeIndex:
				bound = typeCount
			case image.RelocationLocalLayoutIndex:
				bound = localLayoutCount
			case image.RelocationFunctionPublicIndex:
				bound = functionCount
			case image.RelocationDataPublicIndex:
				bound = dataCount
			case image.RelocationExternalFunctionIndex:
				bound = externalCount
			}
			if value >= bound {
				out = append(out, &Violation{fmt.Sprintf("function %d: relocation at offset %d (%s) has value %d, out of bounds for a space of size %d", fi, r.Offset, r.Kind, value, bound)})
			}
		}
	}
	return out
}
