// Package resolver implements the Symbol Resolver (§4.3): three flat
// lookup tables mapping a unit-local identifier to its public index in
// the function, data, and external-function name spaces.
package resolver

import "github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"

// Resolver holds the three flat identifier-to-index tables built once per
// unit from the canonicalizer's output name lists. Name paths containing
// "::" are never looked up here: by the time identifiers reach the
// resolver, the canonicalizer has already reduced every reference to a
// local alias within the unit.
type Resolver struct {
	functions         map[string]uint32
	data              map[string]uint32
	externalFunctions map[string]uint32
}

// New builds a Resolver from the ordered identifier lists already
// assigned their public indices by the canonicalizer and the public-index
// concatenation rules of the data model's invariants (3) and (4).
// functionNames and dataNames must already be in public-index order
// (index i names the symbol whose public index is i); externalNames is
// indexed the same way within the external-function space.
func New(functionNames, dataNames, externalNames []string) *Resolver {
	r := &Resolver{
		functions:         make(map[string]uint32, len(functionNames)),
		data:              make(map[string]uint32, len(dataNames)),
		externalFunctions: make(map[string]uint32, len(externalNames)),
	}
	for i, name := range functionNames {
		r.functions[name] = uint32(i)
	}
	for i, name := range dataNames {
		r.data[name] = uint32(i)
	}
	for i, name := range externalNames {
		r.externalFunctions[name] = uint32(i)
	}
	return r
}

// FunctionPublicIndex resolves a local identifier to its function
// public-index, or FunctionNotFoundError if absent.
func (r *Resolver) FunctionPublicIndex(id string) (uint32, error) {
	if idx, ok := r.functions[id]; ok {
		return idx, nil
	}
	return 0, &asmerr.FunctionNotFoundError{Identifier: id}
}

// DataPublicIndex resolves a local identifier to its data public-index,
// or DataNotFoundError if absent.
func (r *Resolver) DataPublicIndex(id string) (uint32, error) {
	if idx, ok := r.data[id]; ok {
		return idx, nil
	}
	return 0, &asmerr.DataNotFoundError{Identifier: id}
}

// ExternalFunctionIndex resolves a local identifier to its index within
// the external-function space, or ExternalFunctionNotFoundError if
// absent.
func (r *Resolver) ExternalFunctionIndex(id string) (uint32, error) {
	if idx, ok := r.externalFunctions[id]; ok {
		return idx, nil
	}
	return 0, &asmerr.ExternalFunctionNotFoundError{Identifier: id}
}
