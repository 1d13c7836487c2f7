package metadata

import (
	"encoding/json"
	"errors"

	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

var errBodyLenOverflow = errors.New("metadata: footer envelope body_len exceeds buffer")

// JSONCodec is a MetadataCodec that encodes crypto-metadata as
// length-prefixed JSON. It stands in for the reference implementation's
// Thrift encoding in the interop test driver and in this package's own
// tests, where exact wire compatibility with a Thrift-based reader is not
// required.
type JSONCodec struct{}

type fileCryptoMetaDataWire struct {
	Cipher          pqcrypto.Algorithm `json:"cipher"`
	AadPrefix       []byte             `json:"aad_prefix,omitempty"`
	AadFileUnique   []byte             `json:"aad_file_unique"`
	SupplyAadPrefix bool               `json:"supply_aad_prefix"`
	KeyMetadata     []byte             `json:"key_metadata,omitempty"`
}

// EncodeFileCryptoMetaData implements MetadataCodec.
func (JSONCodec) EncodeFileCryptoMetaData(m FileCryptoMetaData) ([]byte, error) {
	wire := fileCryptoMetaDataWire{
		Cipher:          m.EncryptionAlgorithm.Cipher,
		AadPrefix:       m.EncryptionAlgorithm.AadPrefix,
		AadFileUnique:   m.EncryptionAlgorithm.AadFileUnique,
		SupplyAadPrefix: m.EncryptionAlgorithm.SupplyAadPrefix,
		KeyMetadata:     m.KeyMetadata,
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	return lengthPrefix(body), nil
}

// DecodeFileCryptoMetaData implements MetadataCodec.
func (JSONCodec) DecodeFileCryptoMetaData(buf []byte) (FileCryptoMetaData, int, error) {
	body, consumed, err := readLengthPrefixed(buf)
	if err != nil {
		return FileCryptoMetaData{}, 0, err
	}
	var wire fileCryptoMetaDataWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return FileCryptoMetaData{}, 0, err
	}
	return FileCryptoMetaData{
		EncryptionAlgorithm: pqcrypto.EncryptionAlgorithm{
			Cipher:          wire.Cipher,
			AadPrefix:       wire.AadPrefix,
			AadFileUnique:   wire.AadFileUnique,
			SupplyAadPrefix: wire.SupplyAadPrefix,
		},
		KeyMetadata: wire.KeyMetadata,
	}, consumed, nil
}

type footerEnvelopeWire struct {
	Encrypted       bool               `json:"encrypted"`
	Cipher          pqcrypto.Algorithm `json:"cipher,omitempty"`
	AadPrefix       []byte             `json:"aad_prefix,omitempty"`
	AadFileUnique   []byte             `json:"aad_file_unique,omitempty"`
	SupplyAadPrefix bool               `json:"supply_aad_prefix,omitempty"`
	BodyLen         int                `json:"body_len"`
}

// EncodePlaintextFooterEnvelope builds the plaintext-footer-variant
// envelope this codec's PeekFooterEnvelope expects: a length-prefixed JSON
// header followed immediately by footerBody. Callers append the 28-byte
// integrity trailer themselves after calling this, when encryption is in
// use.
func (JSONCodec) EncodePlaintextFooterEnvelope(algo *pqcrypto.EncryptionAlgorithm, footerBody []byte) ([]byte, error) {
	wire := footerEnvelopeWire{BodyLen: len(footerBody)}
	if algo != nil {
		wire.Encrypted = true
		wire.Cipher = algo.Cipher
		wire.AadPrefix = algo.AadPrefix
		wire.AadFileUnique = algo.AadFileUnique
		wire.SupplyAadPrefix = algo.SupplyAadPrefix
	}
	header, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	out := lengthPrefix(header)
	out = append(out, footerBody...)
	return out, nil
}

// PeekFooterEnvelope implements MetadataCodec.
func (JSONCodec) PeekFooterEnvelope(buf []byte) (pqcrypto.EncryptionAlgorithm, bool, []byte, int, error) {
	header, consumed, err := readLengthPrefixed(buf)
	if err != nil {
		return pqcrypto.EncryptionAlgorithm{}, false, nil, 0, err
	}
	var wire footerEnvelopeWire
	if err := json.Unmarshal(header, &wire); err != nil {
		return pqcrypto.EncryptionAlgorithm{}, false, nil, 0, err
	}
	if consumed+wire.BodyLen > len(buf) {
		return pqcrypto.EncryptionAlgorithm{}, false, nil, 0, errBodyLenOverflow
	}
	body := buf[consumed : consumed+wire.BodyLen]
	if !wire.Encrypted {
		return pqcrypto.EncryptionAlgorithm{}, false, body, consumed, nil
	}
	return pqcrypto.EncryptionAlgorithm{
		Cipher:          wire.Cipher,
		AadPrefix:       wire.AadPrefix,
		AadFileUnique:   wire.AadFileUnique,
		SupplyAadPrefix: wire.SupplyAadPrefix,
	}, true, body, consumed, nil
}

type columnCryptoMetaDataWire struct {
	EncryptedWithFooterKey bool   `json:"encrypted_with_footer_key"`
	PathInSchema           string `json:"path_in_schema,omitempty"`
	KeyMetadata            []byte `json:"key_metadata,omitempty"`
}

// EncodeColumnCryptoMetaData serializes a ColumnCryptoMetaData, for
// callers that build their own column-chunk metadata blobs.
func (JSONCodec) EncodeColumnCryptoMetaData(m ColumnCryptoMetaData) ([]byte, error) {
	wire := columnCryptoMetaDataWire{
		EncryptedWithFooterKey: m.EncryptedWithFooterKey,
		PathInSchema:           m.PathInSchema.String(),
		KeyMetadata:            m.KeyMetadata,
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	return lengthPrefix(body), nil
}

// DecodeColumnCryptoMetaData implements MetadataCodec.
func (JSONCodec) DecodeColumnCryptoMetaData(buf []byte) (ColumnCryptoMetaData, bool, error) {
	if len(buf) == 0 {
		return ColumnCryptoMetaData{}, false, nil
	}
	body, _, err := readLengthPrefixed(buf)
	if err != nil {
		return ColumnCryptoMetaData{}, false, err
	}
	var wire columnCryptoMetaDataWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return ColumnCryptoMetaData{}, false, err
	}
	return ColumnCryptoMetaData{
		EncryptedWithFooterKey: wire.EncryptedWithFooterKey,
		PathInSchema:           pqcrypto.ColumnPath(wire.PathInSchema),
		KeyMetadata:            wire.KeyMetadata,
	}, true, nil
}
