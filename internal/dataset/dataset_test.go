package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeVerifyRoundTripAllColumns(t *testing.T) {
	for _, name := range ColumnNames {
		data, err := EncodeColumn(name, NumRowsPerRowGroup)
		require.NoError(t, err)
		require.NoError(t, VerifyColumn(name, data, NumRowsPerRowGroup))
	}
}

func TestVerifyDetectsTamperedValue(t *testing.T) {
	data, err := EncodeColumn("int32_field", 10)
	require.NoError(t, err)
	data[4] ^= 0xFF

	err = VerifyColumn("int32_field", data, 10)
	require.ErrorIs(t, err, ErrValueMismatch)
}

func TestEncodeColumnRejectsUnknownName(t *testing.T) {
	_, err := EncodeColumn("nonexistent", 1)
	require.ErrorIs(t, err, ErrUnknownColumn)
}
