// Package disasm renders an assembled image.Image back into readable
// text: one line per type/local-layout/function/data/import/export
// entry, plus a raw hex dump of each function's code blob annotated
// with its relocation list.
//
// Grounded on the teacher's own text-rendering conventions —
// compiler_value_location.go's String() methods and
// internal/engine/wazevo/ssa's Format(): small per-type String()/Format
// methods composed by a top-level printer, rather than a single
// monolithic formatter function.
package disasm

import (
	"fmt"
	"strings"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
)

// Print renders a complete textual summary of an image.
func Print(img *image.Image) string {
	var b strings.Builder
	fmt.Fprintf(&b, "image %q version %d.%d.%d (%s)\n", img.Name, img.Version.Major, img.Version.Minor, img.Version.Patch, img.Type)

	b.WriteString("\ntypes:\n")
	for i, t := range img.Types {
		fmt.Fprintf(&b, "  [%d] %s\n", i, formatType(t))
	}

	b.WriteString("\nlocal layouts:\n")
	for i, l := range img.LocalLayouts {
		fmt.Fprintf(&b, "  [%d] %s\n", i, formatLocalLayout(l))
	}

	b.WriteString("\nimport modules:\n")
	for i, m := range img.ImportModules {
		fmt.Fprintf(&b, "  [%d] %s\n", i, m.Name)
	}

	b.WriteString("\nimport functions:\n")
	for i, f := range img.ImportFunctions {
		fmt.Fprintf(&b, "  [%d] %s (module=%d, type=%d)\n", i, f.FullName, f.ModuleIndex, f.TypeIndex)
	}

	b.WriteString("\nimport data:\n")
	for i, d := range img.ImportData {
		fmt.Fprintf(&b, "  [%d] %s (module=%d, %s)\n", i, d.FullName, d.ModuleIndex, d.Section)
	}

	b.WriteString("\nexternal libraries:\n")
	for i, l := range img.ExternalLibraries {
		fmt.Fprintf(&b, "  [%d] %s\n", i, l.Name)
	}

	b.WriteString("\nexternal functions:\n")
	for i, f := range img.ExternalFunctions {
		fmt.Fprintf(&b, "  [%d] %s (library=%d, type=%d)\n", i, f.SymbolName, f.LibraryIndex, f.TypeIndex)
	}

	importedFunctionCount := len(img.ImportFunctions)
	b.WriteString("\nfunctions:\n")
	for i, f := range img.Functions {
		publicIndex := importedFunctionCount + i
		fmt.Fprintf(&b, "  [%d] type=%d locals=%d\n", publicIndex, f.TypeIndex, f.LocalLayoutIndex)
		b.WriteString(formatCode(f.Code, img.Relocations[i]))
	}

	b.WriteString("\ndata:\n")
	writeDataSection(&b, "read-only", img.DataReadOnly)
	writeDataSection(&b, "read-write", img.DataReadWrite)
	writeDataSection(&b, "uninitialized", img.DataUninit)

	b.WriteString("\nexports:\n")
	for _, e := range img.ExportFunctions {
		fmt.Fprintf(&b, "  function %s (%s)\n", e.FullName, visibilityString(e.Visibility))
	}
	for _, e := range img.ExportData {
		fmt.Fprintf(&b, "  data %s (%s, %s)\n", e.FullName, visibilityString(e.Visibility), e.Section)
	}

	return b.String()
}

func formatType(t image.TypeEntry) string {
	return fmt.Sprintf("(%s) -> (%s)", joinTypes(t.Params), joinTypes(t.Results))
}

func joinTypes(types []image.PrimitiveType) string {
	parts := make([]string, len(types))
	for i, p := range types {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func formatLocalLayout(l image.LocalLayoutEntry) string {
	parts := make([]string, len(l.Slots))
	for i, s := range l.Slots {
		parts[i] = fmt.Sprintf("%s[%d:%d]", storageClassString(s.Class), s.Length, s.Alignment)
	}
	return strings.Join(parts, ", ")
}

func storageClassString(c image.StorageClass) string {
	switch c {
	case image.StorageI32:
		return "i32"
	case image.StorageI64:
		return "i64"
	case image.StorageF32:
		return "f32"
	case image.StorageF64:
		return "f64"
	case image.StorageBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

func visibilityString(v image.Visibility) string {
	if v == image.Public {
		return "public"
	}
	return "private"
}

func formatCode(code []byte, relocs []image.Relocation) string {
	relocAt := make(map[uint32]image.RelocationKind, len(relocs))
	for _, r := range relocs {
		relocAt[r.Offset] = r.Kind
	}

	var b strings.Builder
	for off := 0; off < len(code); off += 16 {
		end := off + 16
		if end > len(code) {
			end = len(code)
		}
		fmt.Fprintf(&b, "      %04x: % x", off, code[off:end])
		for o := uint32(off); o < uint32(end); o++ {
			if kind, ok := relocAt[o]; ok {
				fmt.Fprintf(&b, "  <reloc@%#x:%s>", o, kind)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeDataSection(b *strings.Builder, label string, entries []image.DataEntry) {
	for i, e := range entries {
		if e.Initialized {
			fmt.Fprintf(b, "  [%s %d] %d bytes, align=%d: % x\n", label, i, e.Length, e.Alignment, e.Bytes)
		} else {
			fmt.Fprintf(b, "  [%s %d] uninitialized, %d bytes, align=%d\n", label, i, e.Length, e.Alignment)
		}
	}
}
