// Package dataseg implements the Data-Segment Builder (§4.7): converting
// typed initializers and uninitialized declarations into image.DataEntry
// records partitioned by section.
package dataseg

import (
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/ast"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"
	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/coerce"
)

// Build converts one ast.DataNode into its image.DataEntry record.
func Build(node ast.DataNode) (image.DataEntry, error) {
	if node.Uninitialized {
		align := node.Alignment
		if align == 0 {
			align = 1
		}
		return image.DataEntry{Initialized: false, Length: node.Length, Alignment: align}, nil
	}

	if node.Value.Kind == ast.DataValueScalar && node.Value.FixedLength != 0 {
		return image.DataEntry{}, &asmerr.IncorrectDataValueTypeError{
			Expected: "byte sequence", Actual: "scalar", DataName: node.Name,
		}
	}

	bytes, err := expand(node.Name, node.Value)
	if err != nil {
		return image.DataEntry{}, err
	}
	if node.Value.FixedLength != 0 {
		bytes = coerce.PadOrTruncate(bytes, node.Value.FixedLength)
	}

	align := node.Alignment
	if align == 0 {
		if node.Value.Kind == ast.DataValueScalar {
			align = node.Value.Type.Size()
		} else {
			align = 1
		}
	}

	return image.DataEntry{Initialized: true, Bytes: bytes, Length: uint32(len(bytes)), Alignment: align}, nil
}

// BuildSections partitions a unit's data declarations into the three
// section sequences, preserving source order within each section, per
// spec §4.7's export-ordering requirement.
func BuildSections(nodes []ast.DataNode) (readOnly, readWrite, uninit []image.DataEntry, err error) {
	for _, n := range nodes {
		entry, buildErr := Build(n)
		if buildErr != nil {
			return nil, nil, nil, buildErr
		}
		switch n.Section {
		case image.SectionReadOnly:
			readOnly = append(readOnly, entry)
		case image.SectionReadWrite:
			readWrite = append(readWrite, entry)
		case image.SectionUninit:
			uninit = append(uninit, entry)
		}
	}
	return readOnly, readWrite, uninit, nil
}

// expand recursively renders a DataValue into its byte representation:
// scalars coerce to their declared width, strings contribute UTF-8 bytes
// without a terminator, hex/byte literals contribute their raw bytes, and
// lists expand element-wise.
func expand(dataName string, v ast.DataValue) ([]byte, error) {
	switch v.Kind {
	case ast.DataValueScalar:
		return coerce.Bytes(v.Type, v.Number), nil
	case ast.DataValueBytes, ast.DataValueHex:
		return v.Bytes, nil
	case ast.DataValueString:
		return []byte(v.Text), nil
	case ast.DataValueList:
		var out []byte
		for _, elem := range v.Elements {
			b, err := expand(dataName, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	default:
		return nil, &asmerr.IncorrectDataValueTypeError{Expected: "known data value kind", Actual: "unrecognized", DataName: dataName}
	}
}
