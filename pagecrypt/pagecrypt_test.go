package pagecrypt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

const footerKey = "0123456789012345"

func buildPair(t *testing.T, path pqcrypto.ColumnPath) (*pqcrypto.Encryptor, *pqcrypto.Encryptor, *pqcrypto.Decryptor, *pqcrypto.Decryptor) {
	t.Helper()
	unique, err := pqcrypto.NewAadFileUnique()
	require.NoError(t, err)
	algo := pqcrypto.EncryptionAlgorithm{Cipher: pqcrypto.AlgorithmAesGcmV1, AadFileUnique: unique}

	encProps, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(footerKey)).Build()
	require.NoError(t, err)
	fileEnc, err := pqcrypto.NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	decProps, err := pqcrypto.NewFileDecryptionPropertiesBuilder().WithFooterKey([]byte(footerKey)).Build()
	require.NoError(t, err)
	fileDec := pqcrypto.NewFileDecryptor(decProps, algo)

	metaEnc, err := fileEnc.GetColumnMetaEncryptor(path, 0, 2)
	require.NoError(t, err)
	dataEnc, err := fileEnc.GetColumnDataEncryptor(path, 0, 2)
	require.NoError(t, err)
	metaDec, err := fileDec.GetColumnMetaDecryptor(path, 0, 2, true, nil)
	require.NoError(t, err)
	dataDec, err := fileDec.GetColumnDataDecryptor(path, 0, 2, true, nil)
	require.NoError(t, err)

	return metaEnc, dataEnc, metaDec, dataDec
}

func TestDataPageRoundTripAdvancesOrdinal(t *testing.T) {
	path := pqcrypto.NewColumnPath("int32_field")
	metaEnc, dataEnc, metaDec, dataDec := buildPair(t, path)

	w := NewWriter(metaEnc, dataEnc, 0, 2)
	r := NewReader(metaDec, dataDec, 0, 2)

	for i := 0; i < 3; i++ {
		headerCipher, err := w.WriteDataPageHeader([]byte("page header bytes"))
		require.NoError(t, err)
		bodyCipher, err := w.WriteDataPageBody([]byte("page body bytes"))
		require.NoError(t, err)

		headerPlain, err := r.ReadDataPageHeader(headerCipher)
		require.NoError(t, err)
		require.Equal(t, []byte("page header bytes"), headerPlain)

		bodyPlain, err := r.ReadDataPageBody(bodyCipher)
		require.NoError(t, err)
		require.Equal(t, []byte("page body bytes"), bodyPlain)
	}
}

func TestDictionaryPageOnlyOncePerChunk(t *testing.T) {
	path := pqcrypto.NewColumnPath("float_field")
	metaEnc, dataEnc, _, _ := buildPair(t, path)

	w := NewWriter(metaEnc, dataEnc, 0, 1)
	_, err := w.WriteDictionaryPageBody([]byte("dictionary bytes"))
	require.NoError(t, err)

	_, err = w.WriteDictionaryPageBody([]byte("dictionary bytes again"))
	require.ErrorIs(t, err, ErrDictionaryPageAlreadyRead)
}

func TestUnencryptedColumnPassesThrough(t *testing.T) {
	w := NewWriter(nil, nil, 0, 0)
	r := NewReader(nil, nil, 0, 0)
	require.False(t, w.Encrypted())
	require.False(t, r.Encrypted())

	body := []byte("plaintext page body")
	ciphertext, err := w.WriteDataPageBody(body)
	require.NoError(t, err)
	require.Equal(t, body, ciphertext)

	plaintext, err := r.ReadDataPageBody(ciphertext)
	require.NoError(t, err)
	require.Equal(t, body, plaintext)
}

func TestResetForColumnChunkClearsOrdinalState(t *testing.T) {
	path := pqcrypto.NewColumnPath("double_field")
	metaEnc, dataEnc, metaDec, dataDec := buildPair(t, path)

	w := NewWriter(metaEnc, dataEnc, 0, 3)
	first, err := w.WriteDataPageBody([]byte("a"))
	require.NoError(t, err)
	second, err := w.WriteDataPageBody([]byte("b"))
	require.NoError(t, err)

	r := NewReader(metaDec, dataDec, 0, 3)
	_, err = r.ReadDataPageBody(first)
	require.NoError(t, err)
	_, err = r.ReadDataPageBody(second)
	require.NoError(t, err)
	require.Equal(t, int16(2), r.nextDataOrdinal)

	r.ResetForColumnChunk(metaDec, dataDec)
	require.Equal(t, int16(0), r.nextDataOrdinal)
}
