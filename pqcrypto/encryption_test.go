package pqcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	footerKey = "0123456789012345"
	columnKey = "1234567890123450"
)

func testAlgorithm(t *testing.T) EncryptionAlgorithm {
	t.Helper()
	unique, err := NewAadFileUnique()
	require.NoError(t, err)
	return EncryptionAlgorithm{Cipher: AlgorithmAesGcmV1, AadFileUnique: unique}
}

func TestFileEncryptorDecryptorFooterRoundTrip(t *testing.T) {
	algo := testAlgorithm(t)

	encProps, err := NewFileEncryptionPropertiesBuilder([]byte(footerKey)).Build()
	require.NoError(t, err)

	fileEnc, err := NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	footerEnc, err := fileEnc.GetFooterEncryptor()
	require.NoError(t, err)

	plaintext := []byte("serialized footer bytes")
	frame, err := footerEnc.Encrypt(plaintext)
	require.NoError(t, err)

	decProps, err := NewFileDecryptionPropertiesBuilder().WithFooterKey([]byte(footerKey)).Build()
	require.NoError(t, err)

	fileDec := NewFileDecryptor(decProps, algo)
	footerDec, err := fileDec.GetFooterDecryptor()
	require.NoError(t, err)

	got, err := footerDec.Decrypt(frame)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestFileEncryptorDecryptorColumnWithExplicitKey(t *testing.T) {
	algo := testAlgorithm(t)
	path := NewColumnPath("double_field")

	colEnc, err := NewColumnEncryptionPropertiesBuilder(path).Key([]byte(columnKey)).Build()
	require.NoError(t, err)

	encProps, err := NewFileEncryptionPropertiesBuilder([]byte(footerKey)).
		WithColumnProperties(map[ColumnPath]ColumnEncryptionProperties{path: colEnc}).
		Build()
	require.NoError(t, err)

	fileEnc, err := NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	dataEnc, err := fileEnc.GetColumnDataEncryptor(path, 0, 3)
	require.NoError(t, err)

	plaintext := []byte("page body bytes")
	frame, err := dataEnc.Encrypt(plaintext)
	require.NoError(t, err)

	decProps, err := NewFileDecryptionPropertiesBuilder().
		WithFooterKey([]byte(footerKey)).
		WithColumnProperties(map[ColumnPath]ColumnDecryptionProperties{
			path: {Path: path, Key: []byte(columnKey)},
		}).
		Build()
	require.NoError(t, err)

	fileDec := NewFileDecryptor(decProps, algo)
	dataDec, err := fileDec.GetColumnDataDecryptor(path, 0, 3, false, nil)
	require.NoError(t, err)

	got, err := dataDec.Decrypt(frame)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestColumnKeyResolutionFallsBackToRetriever(t *testing.T) {
	algo := testAlgorithm(t)
	path := NewColumnPath("float_field")

	decProps, err := NewFileDecryptionPropertiesBuilder().
		WithFooterKey([]byte(footerKey)).
		WithKeyRetriever(NewMapKeyRetriever(map[string][]byte{"kc2": []byte("1234567890123451")})).
		Build()
	require.NoError(t, err)

	fileDec := NewFileDecryptor(decProps, algo)
	key, err := fileDec.ResolveColumnKey(path, []byte("kc2"))
	require.NoError(t, err)
	require.Equal(t, []byte("1234567890123451"), key)
}

func TestColumnKeyResolutionFailsWithoutRetrieverOrExplicitKey(t *testing.T) {
	algo := testAlgorithm(t)
	path := NewColumnPath("double_field")

	decProps, err := NewFileDecryptionPropertiesBuilder().
		WithFooterKey([]byte(footerKey)).
		Build()
	require.NoError(t, err)

	fileDec := NewFileDecryptor(decProps, algo)
	_, err = fileDec.ResolveColumnKey(path, []byte("kc1"))
	require.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestTamperedColumnFrameFailsAuthentication(t *testing.T) {
	algo := testAlgorithm(t)
	path := NewColumnPath("int32_field")

	colEnc, err := NewColumnEncryptionPropertiesBuilder(path).Key([]byte(columnKey)).Build()
	require.NoError(t, err)
	encProps, err := NewFileEncryptionPropertiesBuilder([]byte(footerKey)).
		WithColumnProperties(map[ColumnPath]ColumnEncryptionProperties{path: colEnc}).
		Build()
	require.NoError(t, err)
	fileEnc, err := NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	metaEnc, err := fileEnc.GetColumnMetaEncryptor(path, 0, 1)
	require.NoError(t, err)
	frame, err := metaEnc.Encrypt([]byte("column metadata thrift bytes"))
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xFF

	decProps, err := NewFileDecryptionPropertiesBuilder().
		WithFooterKey([]byte(footerKey)).
		WithColumnProperties(map[ColumnPath]ColumnDecryptionProperties{
			path: {Path: path, Key: []byte(columnKey)},
		}).
		Build()
	require.NoError(t, err)
	fileDec := NewFileDecryptor(decProps, algo)

	metaDec, err := fileDec.GetColumnMetaDecryptor(path, 0, 1, false, nil)
	require.NoError(t, err)

	_, err = metaDec.Decrypt(frame)
	require.ErrorIs(t, err, ErrAeadFailure)
}
