// Package typetable implements the Type Table Builder (§4.2): an
// interning table of (params, results) signatures, prepended with the
// sentinel empty-empty entry at index 0.
package typetable

import "github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"

// Builder interns type signatures and assigns them stable indices. The
// zero value is not usable; construct with New.
type Builder struct {
	entries []image.TypeEntry
}

// New returns a Builder pre-populated with the sentinel empty signature
// at index 0, per the data model's invariant (1).
func New() *Builder {
	return &Builder{entries: []image.TypeEntry{{}}}
}

// Intern returns the index of the signature (params, results), appending
// a new entry if no structurally-equal entry exists yet. An entry's index
// never changes once assigned.
func (b *Builder) Intern(params, results []image.PrimitiveType) uint32 {
	candidate := image.TypeEntry{
		Params:  append([]image.PrimitiveType(nil), params...),
		Results: append([]image.PrimitiveType(nil), results...),
	}
	for i, e := range b.entries {
		if e.Equal(candidate) {
			return uint32(i)
		}
	}
	b.entries = append(b.entries, candidate)
	return uint32(len(b.entries) - 1)
}

// Entries returns the interned table in index order, including the
// sentinel at index 0. The returned slice must not be mutated by the
// caller.
func (b *Builder) Entries() []image.TypeEntry {
	return b.entries
}
