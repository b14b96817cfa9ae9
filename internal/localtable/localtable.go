// Package localtable implements the Local-Layout Table Builder (§4.2): an
// interning table of ordered local-variable slot lists, prepended with the
// sentinel empty entry at index 0.
package localtable

import "github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"

// Builder interns local-variable layouts and assigns them stable indices.
type Builder struct {
	entries []image.LocalLayoutEntry
}

// New returns a Builder pre-populated with the sentinel empty layout at
// index 0, per the data model's invariant (1).
func New() *Builder {
	return &Builder{entries: []image.LocalLayoutEntry{{}}}
}

// Intern returns the index of the slot list `slots`, appending a new
// entry if no structurally-equal entry exists yet. The builder does not
// reorder or otherwise transform the slice it is given: callers are
// responsible for concatenating parameter-derived slots ahead of declared
// locals before calling Intern, per spec §4.2.
func (b *Builder) Intern(slots []image.LocalSlot) uint32 {
	candidate := image.LocalLayoutEntry{Slots: append([]image.LocalSlot(nil), slots...)}
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
func (b *Builder) Entries() []image.LocalLayoutEntry {
	return b.entries
}
