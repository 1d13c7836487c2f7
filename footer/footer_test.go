package footer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newrevit13/parquetcrypt/metadata"
	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

const footerKey = "0123456789012345"

type bytesSource struct {
	data []byte
}

func (s *bytesSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.data)) {
		return 0, errShortRead
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, errShortRead
	}
	return n, nil
}

func (s *bytesSource) Size() (int64, error) { return int64(len(s.data)), nil }

var errShortRead = &shortReadError{}

type shortReadError struct{}

func (*shortReadError) Error() string { return "footer test: short read" }

func buildAlgo(t *testing.T) pqcrypto.EncryptionAlgorithm {
	t.Helper()
	unique, err := pqcrypto.NewAadFileUnique()
	require.NoError(t, err)
	return pqcrypto.EncryptionAlgorithm{Cipher: pqcrypto.AlgorithmAesGcmV1, AadFileUnique: unique}
}

func TestReadUnencryptedPlaintextFooter(t *testing.T) {
	codec := metadata.JSONCodec{}
	footerBody := []byte("unencrypted schema + row group metadata")

	envelope, err := codec.EncodePlaintextFooterEnvelope(nil, footerBody)
	require.NoError(t, err)

	tail := append([]byte{}, envelope...)
	tail = binary.LittleEndian.AppendUint32(tail, uint32(len(envelope)))
	tail = append(tail, magicPlaintext[:]...)

	parsed, err := Read(&bytesSource{data: tail}, nil, codec, nil)
	require.NoError(t, err)
	require.False(t, parsed.Encrypted)
	require.Equal(t, footerBody, parsed.FooterBytes)
}

func TestReadEncryptedFooterVariantRoundTrip(t *testing.T) {
	codec := metadata.JSONCodec{}
	algo := buildAlgo(t)

	encProps, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(footerKey)).Build()
	require.NoError(t, err)
	fileEnc, err := pqcrypto.NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	cryptoMeta := metadata.FileCryptoMetaData{EncryptionAlgorithm: algo, KeyMetadata: []byte("kf")}
	cryptoMetaBytes, err := codec.EncodeFileCryptoMetaData(cryptoMeta)
	require.NoError(t, err)

	footerBody := []byte("encrypted-footer schema + row group metadata")
	tailRegion, err := WriteEncryptedFooter(fileEnc, cryptoMetaBytes, footerBody)
	require.NoError(t, err)

	decProps, err := pqcrypto.NewFileDecryptionPropertiesBuilder().WithFooterKey([]byte(footerKey)).Build()
	require.NoError(t, err)

	parsed, err := Read(&bytesSource{data: tailRegion}, decProps, codec, nil)
	require.NoError(t, err)
	require.True(t, parsed.Encrypted)
	require.Equal(t, footerBody, parsed.FooterBytes)
	require.Equal(t, algo.FileAAD(), parsed.FileAAD)
}

func TestReadPlaintextFooterWithIntegrityTrailer(t *testing.T) {
	codec := metadata.JSONCodec{}
	algo := buildAlgo(t)

	encProps, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(footerKey)).WithPlaintextFooter().Build()
	require.NoError(t, err)
	fileEnc, err := pqcrypto.NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	footerBody := []byte("plaintext footer schema bytes")
	nonce := make([]byte, 12)
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}

	tailRegion, err := WritePlaintext(fileEnc, algo, encProps, codec, footerBody, nonce)
	require.NoError(t, err)

	decProps, err := pqcrypto.NewFileDecryptionPropertiesBuilder().WithFooterKey([]byte(footerKey)).Build()
	require.NoError(t, err)

	parsed, err := Read(&bytesSource{data: tailRegion}, decProps, codec, nil)
	require.NoError(t, err)
	require.True(t, parsed.Encrypted)
	require.Equal(t, footerBody, parsed.FooterBytes)
}

func TestReadPlaintextFooterTamperedTrailerFailsIntegrity(t *testing.T) {
	codec := metadata.JSONCodec{}
	algo := buildAlgo(t)

	encProps, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(footerKey)).WithPlaintextFooter().Build()
	require.NoError(t, err)
	fileEnc, err := pqcrypto.NewFileEncryptor(encProps, algo)
	require.NoError(t, err)

	footerBody := []byte("plaintext footer schema bytes")
	nonce := make([]byte, 12)
	tailRegion, err := WritePlaintext(fileEnc, algo, encProps, codec, footerBody, nonce)
	require.NoError(t, err)

	// The tail ends with trailer(28) || length(4) || magic(4); flip the last
	// byte of the trailer's GCM tag.
	tailRegion[len(tailRegion)-9] ^= 0xFF

	decProps, err := pqcrypto.NewFileDecryptionPropertiesBuilder().WithFooterKey([]byte(footerKey)).Build()
	require.NoError(t, err)

	_, err = Read(&bytesSource{data: tailRegion}, decProps, codec, nil)
	require.ErrorIs(t, err, pqcrypto.ErrFooterSignatureInvalid)
}

func TestCorruptFooterTooSmallFile(t *testing.T) {
	_, err := Read(&bytesSource{data: []byte{1, 2, 3}}, nil, metadata.JSONCodec{}, nil)
	require.ErrorIs(t, err, pqcrypto.ErrCorruptFooter)
}

func TestUnrecognizedMagicIsCorruptFooter(t *testing.T) {
	data := make([]byte, 16)
	copy(data[len(data)-4:], []byte("ZZZZ"))
	_, err := Read(&bytesSource{data: data}, nil, metadata.JSONCodec{}, nil)
	require.ErrorIs(t, err, pqcrypto.ErrCorruptFooter)
}
