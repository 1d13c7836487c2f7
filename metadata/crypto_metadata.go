// Package metadata defines the crypto-metadata structures stored in a
// Parquet file: the file-level encryption algorithm descriptor and the
// per-column-chunk encryption markers. Serializing these to and from the
// file's Thrift-encoded footer is an external concern; this package only
// models the decoded shape and exposes a MetadataCodec seam for whatever
// serializer the caller wires in.
package metadata

import (
	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

// ColumnCryptoMetaData is the per-column-chunk encryption marker stored
// next to a column chunk's regular metadata.
type ColumnCryptoMetaData struct {
	// EncryptedWithFooterKey is true when the column uses the file's
	// footer key rather than a column-specific key.
	EncryptedWithFooterKey bool

	// PathInSchema is set only when EncryptedWithFooterKey is false; it
	// lets the reader locate the matching ColumnDecryptionProperties.
	PathInSchema pqcrypto.ColumnPath

	// KeyMetadata is the opaque hint bytes for the column's key, set only
	// when EncryptedWithFooterKey is false.
	KeyMetadata []byte
}

// FileCryptoMetaData is the structure stored ahead of the encrypted footer
// in encrypted-footer ("PARE") files.
type FileCryptoMetaData struct {
	EncryptionAlgorithm pqcrypto.EncryptionAlgorithm
	KeyMetadata         []byte
}

// MetadataCodec serializes and parses the crypto-metadata and regular
// footer structures to and from their on-disk bytes. Thrift encoding (the
// format used by the reference implementation) is one possible
// implementation; this package is agnostic to the wire format.
type MetadataCodec interface {
	// DecodeFileCryptoMetaData parses a FileCryptoMetaData prefix from buf
	// and reports how many bytes it consumed.
	DecodeFileCryptoMetaData(buf []byte) (FileCryptoMetaData, int, error)

	// EncodeFileCryptoMetaData serializes a FileCryptoMetaData structure.
	EncodeFileCryptoMetaData(FileCryptoMetaData) ([]byte, error)

	// DecodeColumnCryptoMetaData parses a single column chunk's crypto
	// metadata, or reports ok=false if the column carries none (the
	// column is unencrypted, or the file itself is unencrypted).
	DecodeColumnCryptoMetaData(buf []byte) (meta ColumnCryptoMetaData, ok bool, err error)

	// PeekFooterEnvelope inspects a plaintext-footer file's regular footer
	// bytes and reports whether it declares an encryption algorithm. In
	// both cases footerBody is the plaintext footer bytes with any envelope
	// header and any trailing integrity trailer excluded (for a codec that
	// wraps no envelope around an unencrypted footer, that is buf
	// unchanged). consumed is the number of leading bytes of buf occupied by
	// the envelope header that precedes footerBody, letting the caller
	// locate bytes that follow footerBody within the original buf (such as
	// an integrity trailer).
	PeekFooterEnvelope(buf []byte) (algo pqcrypto.EncryptionAlgorithm, encrypted bool, footerBody []byte, consumed int, err error)
}
