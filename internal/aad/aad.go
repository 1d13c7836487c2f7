// Package aad builds the per-module Additional Authenticated Data used by
// the AES-GCM/AES-GCM-CTR engine in internal/aead.
//
// Layout mirrors the Parquet format's module AAD construction: file AAD,
// followed by a one-byte module type tag, followed by zero or more 16-bit
// little-endian ordinals (row group, column, page), depending on which
// ordinals the module type requires.
package aad

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// ModuleType tags the kind of file content a module AAD authenticates.
type ModuleType int8

const (
	FooterModule ModuleType = iota
	ColumnMetaDataModule
	DataPageModule
	DictionaryPageModule
	DataPageHeaderModule
	DictionaryPageHeaderModule
	ColumnIndexModule
	OffsetIndexModule
)

// AadError signals an internal length miscalculation while building or
// mutating a module AAD. Valid inputs never produce this error.
type AadError struct {
	msg string
}

func (e *AadError) Error() string { return e.msg }

// hasRowGroupAndColumn reports whether a module type carries row-group and
// column ordinals. The footer module carries no ordinals at all.
func hasRowGroupAndColumn(t ModuleType) bool {
	return t != FooterModule
}

// hasPage reports whether a module type additionally carries a page
// ordinal, on top of row-group and column ordinals.
func hasPage(t ModuleType) bool {
	switch t {
	case DataPageModule, DataPageHeaderModule, DictionaryPageModule, DictionaryPageHeaderModule:
		return true
	default:
		return false
	}
}

// BuildModuleAAD deterministically composes the module AAD for moduleType
// from fileAAD and the supplied ordinals. Ordinals not required by
// moduleType are ignored. Identical arguments always produce identical
// bytes (spec invariant: AAD is a pure function of its inputs).
func BuildModuleAAD(fileAAD []byte, moduleType ModuleType, rowGroupOrdinal, columnOrdinal, pageOrdinal int16) ([]byte, error) {
	size := len(fileAAD) + 1
	if hasRowGroupAndColumn(moduleType) {
		size += 4
	}
	if hasPage(moduleType) {
		size += 2
	}

	buf := make([]byte, 0, size)
	buf = append(buf, fileAAD...)
	buf = append(buf, byte(moduleType))

	if !hasRowGroupAndColumn(moduleType) {
		if len(buf) != size {
			return nil, &AadError{"footer AAD length mismatch"}
		}
		return buf, nil
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(rowGroupOrdinal))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(columnOrdinal))

	if hasPage(moduleType) {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(pageOrdinal))
	}

	if len(buf) != size {
		return nil, &AadError{"module AAD length mismatch"}
	}
	return buf, nil
}

// BuildFooterAAD builds the module AAD for the Footer module, which carries
// no ordinals at all.
func BuildFooterAAD(fileAAD []byte) ([]byte, error) {
	return BuildModuleAAD(fileAAD, FooterModule, 0, 0, 0)
}

// QuickUpdatePageAAD mutates the last two bytes of a previously built module
// AAD in place, rewriting only the page ordinal. aad must have been built
// with BuildModuleAAD for a module type for which hasPage is true; callers
// use this to avoid rebuilding the AAD from scratch for every page in a
// column chunk.
func QuickUpdatePageAAD(buf []byte, newPageOrdinal int16) error {
	if len(buf) < 2 {
		return xerrors.Errorf("aad too short to carry a page ordinal: %d bytes", len(buf))
	}
	binary.LittleEndian.PutUint16(buf[len(buf)-2:], uint16(newPageOrdinal))
	return nil
}

// FileAAD composes the file-level AAD root from its two constituent parts.
func FileAAD(aadPrefix, aadFileUnique []byte) []byte {
	out := make([]byte, 0, len(aadPrefix)+len(aadFileUnique))
	out = append(out, aadPrefix...)
	out = append(out, aadFileUnique...)
	return out
}
