// Package dataset generates and verifies the fixed four-column dataset
// used by the interop test driver: a boolean, an int32, a float, and a
// double column, each derived deterministically from the row index.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// NumRowsPerRowGroup is the row count written to every column in a test
// file's single row group.
const NumRowsPerRowGroup = 500

// ColumnNames lists the dataset's columns in column-ordinal order.
var ColumnNames = []string{"bool_field", "int32_field", "float_field", "double_field"}

// ErrUnknownColumn reports a column name outside ColumnNames.
var ErrUnknownColumn = errors.New("dataset: unknown column")

// ErrValueMismatch reports a decoded value that does not match the
// deterministic formula for its row index.
var ErrValueMismatch = errors.New("dataset: decoded value does not match expected formula")

// EncodeColumn produces the fixed-width little-endian encoding of numRows
// values for the named column.
func EncodeColumn(name string, numRows int) ([]byte, error) {
	switch name {
	case "bool_field":
		return encodeBool(numRows), nil
	case "int32_field":
		return encodeInt32(numRows), nil
	case "float_field":
		return encodeFloat(numRows), nil
	case "double_field":
		return encodeDouble(numRows), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
}

// VerifyColumn decodes data as the named column's fixed-width encoding and
// confirms every one of numRows values matches the deterministic formula.
func VerifyColumn(name string, data []byte, numRows int) error {
	switch name {
	case "bool_field":
		return verifyBool(data, numRows)
	case "int32_field":
		return verifyInt32(data, numRows)
	case "float_field":
		return verifyFloat(data, numRows)
	case "double_field":
		return verifyDouble(data, numRows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
}

func encodeBool(n int) []byte {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			buf[i] = 1
		}
	}
	return buf
}

func verifyBool(data []byte, n int) error {
	if len(data) != n {
		return fmt.Errorf("%w: bool_field: expected %d bytes, got %d", ErrValueMismatch, n, len(data))
	}
	for i := 0; i < n; i++ {
		expected := byte(0)
		if i%2 == 0 {
			expected = 1
		}
		if data[i] != expected {
			return fmt.Errorf("%w: bool_field row %d: expected %d, got %d", ErrValueMismatch, i, expected, data[i])
		}
	}
	return nil
}

func encodeInt32(n int) []byte {
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(i)))
	}
	return buf
}

func verifyInt32(data []byte, n int) error {
	if len(data) != n*4 {
		return fmt.Errorf("%w: int32_field: expected %d bytes, got %d", ErrValueMismatch, n*4, len(data))
	}
	for i := 0; i < n; i++ {
		got := int32(binary.LittleEndian.Uint32(data[i*4:]))
		if got != int32(i) {
			return fmt.Errorf("%w: int32_field row %d: expected %d, got %d", ErrValueMismatch, i, i, got)
		}
	}
	return nil
}

func encodeFloat(n int) []byte {
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := float32(i) * 1.1
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func verifyFloat(data []byte, n int) error {
	if len(data) != n*4 {
		return fmt.Errorf("%w: float_field: expected %d bytes, got %d", ErrValueMismatch, n*4, len(data))
	}
	for i := 0; i < n; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		expected := float32(i) * 1.1
		if got != expected {
			return fmt.Errorf("%w: float_field row %d: expected %v, got %v", ErrValueMismatch, i, expected, got)
		}
	}
	return nil
}

func encodeDouble(n int) []byte {
	buf := make([]byte, n*8)
	for i := 0; i < n; i++ {
		v := float64(i) * 1.1111111
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func verifyDouble(data []byte, n int) error {
	if len(data) != n*8 {
		return fmt.Errorf("%w: double_field: expected %d bytes, got %d", ErrValueMismatch, n*8, len(data))
	}
	for i := 0; i < n; i++ {
		got := math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		expected := float64(i) * 1.1111111
		if got != expected {
			return fmt.Errorf("%w: double_field row %d: expected %v, got %v", ErrValueMismatch, i, expected, got)
		}
	}
	return nil
}
