// Package image defines the in-memory shape of the object image produced by
// assembling a single compilation unit: type signatures, local-variable
// layouts, function bodies, data segments, import/export tables, and the
// relocation list accompanying each function's code.
//
// Every value in this package is immutable once an Image has been returned
// from assembly: nothing here is mutated concurrently, and nothing here
// owns resources that need releasing.
package image

// PrimitiveType is one of the four numeric operand kinds the virtual
// machine operates on.
type PrimitiveType byte

const (
	I32 PrimitiveType = iota
	I64
	F32
	F64
)

func (t PrimitiveType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// Size returns the natural size, in bytes, of a numeric primitive type.
func (t PrimitiveType) Size() uint32 {
	switch t {
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	default:
		return 0
	}
}

// StorageClass is the storage kind of a local-variable slot: one of the
// four numeric primitive types, or an arbitrary-length byte buffer.
type StorageClass byte

const (
	StorageI32 StorageClass = iota
	StorageI64
	StorageF32
	StorageF64
	StorageBytes
)

// TypeEntry is an ordered pair of operand-type lists: the parameters a
// function/block consumes and the results it produces. Two entries are
// equal iff both lists are element-wise equal.
type TypeEntry struct {
	Params  []PrimitiveType
	Results []PrimitiveType
}

// Equal reports whether two type entries describe the same signature.
func (t TypeEntry) Equal(other TypeEntry) bool {
	return equalPrimitiveSlices(t.Params, other.Params) && equalPrimitiveSlices(t.Results, other.Results)
}

func equalPrimitiveSlices(a, b []PrimitiveType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LocalSlot describes one slot in a local-variable layout: its storage
// class, its length in bytes (implied for numerics, explicit for raw
// bytes), and its alignment in bytes (defaulting to 1 for raw bytes).
type LocalSlot struct {
	Class     StorageClass
	Length    uint32
	Alignment uint32
}

// LocalLayoutEntry is an ordered list of local-variable slots. Parameters
// of a scope are expected to prefix its declared locals within the list by
// the caller that constructs it; the table itself makes no distinction
// between the two once interned.
type LocalLayoutEntry struct {
	Slots []LocalSlot
}

// Equal reports whether two local-layout entries describe the same ordered
// slot list.
func (l LocalLayoutEntry) Equal(other LocalLayoutEntry) bool {
	if len(l.Slots) != len(other.Slots) {
		return false
	}
	for i := range l.Slots {
		if l.Slots[i] != other.Slots[i] {
			return false
		}
	}
	return true
}

// RelocationKind identifies what kind of public index is embedded at a
// relocation's offset.
type RelocationKind byte

const (
	RelocationTypeIndex RelocationKind = iota
	RelocationLocalLayoutIndex
	RelocationFunctionPublicIndex
	RelocationDataPublicIndex
	RelocationExternalFunctionIndex
)

func (k RelocationKind) String() string {
	switch k {
	case RelocationTypeIndex:
		return "TypeIndex"
	case RelocationLocalLayoutIndex:
		return "LocalLayoutIndex"
	case RelocationFunctionPublicIndex:
		return "FunctionPublicIndex"
	case RelocationDataPublicIndex:
		return "DataPublicIndex"
	case RelocationExternalFunctionIndex:
		return "ExternalFunctionIndex"
	default:
		return "unknown"
	}
}

// Relocation pairs a byte offset within a function's code blob with the
// kind of public index stored there.
type Relocation struct {
	Offset uint32
	Kind   RelocationKind
}

// FunctionEntry is one locally-defined function: its signature, its
// local-variable layout, and its encoded code blob.
type FunctionEntry struct {
	TypeIndex        uint32
	LocalLayoutIndex uint32
	Code             []byte
}

// Section identifies which of the three data-segment sequences a data
// entry belongs to.
type Section byte

const (
	SectionReadOnly Section = iota
	SectionReadWrite
	SectionUninit
)

func (s Section) String() string {
	switch s {
	case SectionReadOnly:
		return "read-only"
	case SectionReadWrite:
		return "read-write"
	case SectionUninit:
		return "uninitialized"
	default:
		return "unknown"
	}
}

// DataEntry is either an initialized blob with an explicit alignment, or an
// uninitialized reservation with a length and alignment. Initialized is
// false for an uninitialized reservation, in which case Bytes is nil and
// Length holds the reserved size.
type DataEntry struct {
	Initialized bool
	Bytes       []byte
	Length      uint32
	Alignment   uint32
}

// Visibility marks whether an exported symbol is reachable from outside
// the compilation unit.
type Visibility byte

const (
	Public Visibility = iota
	Private
)

// ExportEntry is one exported symbol: its fully-qualified name
// (`<unit-name>::<identifier>`), its visibility, and — for data — the
// section it lives in.
type ExportEntry struct {
	FullName   string
	Visibility Visibility
	Section    Section // meaningful only for data exports
	IsData     bool
}

// Dependency describes how an imported module is located (a version
// constraint, a source location, or similar); its shape is owned entirely
// by the caller supplying configured dependency lists and is opaque here.
type Dependency struct {
	Descriptor string
}

// SelfReferenceModuleName is the synthetic module name always present at
// import-module index 0, representing the unit importing its own symbols.
const SelfReferenceModuleName = "module::self"

// ImportModuleEntry is one import-module entry: a name and a dependency
// descriptor. The self-reference module is always present at index 0.
type ImportModuleEntry struct {
	Name       string
	Dependency Dependency
}

// ImportFunctionEntry is one imported function: its canonical full name,
// the index of the module it refers to, and the type-table index of its
// signature.
type ImportFunctionEntry struct {
	FullName    string
	ModuleIndex uint32
	TypeIndex   uint32
}

// ImportDataEntry is one imported data item: its canonical full name, the
// index of the module it refers to, the section it lives in, and its
// storage class.
//
// Image.ImportData stores these pre-grouped by Section in the order
// {read-only, read-write, uninitialized} (declaration order preserved
// within each group), so that a running count over ImportData followed by
// DataReadOnly, DataReadWrite, DataUninit reproduces the public-index
// space mandated by the data model's invariant (4) without further
// sorting at lookup time.
type ImportDataEntry struct {
	FullName    string
	ModuleIndex uint32
	Section     Section
	Class       StorageClass
}

// ExternalLibraryEntry is one external (non-unit, non-module) native
// library dependency: a name and a dependency descriptor.
type ExternalLibraryEntry struct {
	Name       string
	Dependency Dependency
}

// ExternalFunctionEntry is one external function: the index of the library
// it belongs to, its symbol name, and its type-table index.
type ExternalFunctionEntry struct {
	LibraryIndex uint32
	SymbolName   string
	TypeIndex    uint32
}

// Version is a semantic version triple.
type Version struct {
	Major, Minor, Patch uint16
}

// ImageType tags the kind of image produced. This core only ever produces
// object-unit images; a linker may produce other kinds downstream.
const ImageTypeObjectUnit = "object-unit"

// Image is the complete, self-contained output of assembling one
// compilation unit.
type Image struct {
	Name    string
	Version Version
	Type    string // always ImageTypeObjectUnit for this core

	Types        []TypeEntry
	LocalLayouts []LocalLayoutEntry
	Functions    []FunctionEntry

	DataReadOnly  []DataEntry
	DataReadWrite []DataEntry
	DataUninit    []DataEntry

	ImportModules   []ImportModuleEntry
	ImportFunctions []ImportFunctionEntry
	ImportData      []ImportDataEntry

	ExportFunctions []ExportEntry
	ExportData      []ExportEntry

	// Relocations holds one list per locally-defined function, indexed in
	// parallel with Functions.
	Relocations [][]Relocation

	ExternalLibraries []ExternalLibraryEntry
	ExternalFunctions []ExternalFunctionEntry
}

// FunctionPublicIndexCount returns the size of the function public-index
// space: imported functions followed by locally-defined functions.
func (img *Image) FunctionPublicIndexCount() int {
	return len(img.ImportFunctions) + len(img.Functions)
}

// DataPublicIndexCount returns the size of the data public-index space:
// imported {RO, RW, Uninit} then local {RO, RW, Uninit}, per the
// concatenation order mandated by the data model's invariant (4).
func (img *Image) DataPublicIndexCount() int {
	return len(img.ImportData) + len(img.DataReadOnly) + len(img.DataReadWrite) + len(img.DataUninit)
}
