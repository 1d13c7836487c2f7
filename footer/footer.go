// Package footer detects which footer variant a Parquet file uses,
// parses its crypto metadata when encrypted, establishes the file AAD,
// verifies plaintext-footer integrity, and dispatches per-column-chunk
// decryptors to page readers.
package footer

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/newrevit13/parquetcrypt/internal/aead"
	"github.com/newrevit13/parquetcrypt/metadata"
	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

var (
	magicPlaintext      = [4]byte{'P', 'A', 'R', '1'}
	magicEncryptedFooter = [4]byte{'P', 'A', 'R', 'E'}
)

const (
	// trailerLen is the size of the plaintext-footer integrity trailer:
	// a 12-byte nonce followed by a 16-byte GCM tag.
	trailerLen = aead.NonceLength + aead.GCMTagLength
	// tailRegionCap bounds how much of the file's tail this package reads
	// in one shot to locate the footer without a second round trip for
	// the common case.
	tailRegionCap = 64 * 1024
)

// Variant identifies which footer encoding a file uses.
type Variant int

const (
	// VariantPlaintext covers both truly unencrypted files and
	// plaintext-footer encrypted files — both end in the PAR1 magic.
	VariantPlaintext Variant = iota
	// VariantEncryptedFooter covers fully encrypted-footer files, ending
	// in the PARE magic.
	VariantEncryptedFooter
)

// ParsedFooter is the result of locating and, if necessary, decrypting a
// file's footer.
type ParsedFooter struct {
	Variant Variant
	// FooterBytes holds the plaintext (already-decrypted, if applicable)
	// footer bytes ready for the caller's regular-metadata parser.
	FooterBytes []byte
	// Encrypted reports whether the file carries any encryption at all.
	Encrypted bool
	// FileAAD is the reconciled file AAD root; zero-length when
	// Encrypted is false.
	FileAAD []byte
	// Decryptor is non-nil when Encrypted is true, ready to vend
	// per-column-chunk decryptors.
	Decryptor *pqcrypto.FileDecryptor
}

// Source is the random-access byte source a Parquet file is read from.
type Source interface {
	io.ReaderAt
	Size() (int64, error)
}

// Read locates and parses the footer of the file read from src, decrypting it if
// necessary using decProps and decoding crypto-metadata structures with
// codec. decProps may be nil only if the file turns out to be unencrypted.
func Read(src Source, decProps *pqcrypto.FileDecryptionProperties, codec metadata.MetadataCodec, logger hclog.Logger) (*ParsedFooter, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	fileSize, err := src.Size()
	if err != nil {
		return nil, err
	}
	if fileSize < 8 {
		return nil, pqcrypto.ErrCorruptFooter
	}

	tailLen := fileSize
	if tailLen > tailRegionCap {
		tailLen = tailRegionCap
	}
	tail := make([]byte, tailLen)
	if _, err := src.ReadAt(tail, fileSize-tailLen); err != nil {
		return nil, pqcrypto.ErrCorruptFooter
	}

	var magic [4]byte
	copy(magic[:], tail[len(tail)-4:])

	switch magic {
	case magicPlaintext:
		return readPlaintextVariant(src, fileSize, tail, decProps, codec, logger)
	case magicEncryptedFooter:
		return readEncryptedFooterVariant(src, fileSize, tail, decProps, codec, logger)
	default:
		return nil, pqcrypto.ErrCorruptFooter
	}
}

// readTailSlice returns the requested byte range, reusing the in-memory
// tail buffer when it already covers the range and otherwise issuing a
// fresh read at the file offset.
func readTailSlice(src Source, fileSize int64, tail []byte, start, length int64) ([]byte, error) {
	tailStart := fileSize - int64(len(tail))
	if start >= tailStart {
		off := start - tailStart
		if off < 0 || off+length > int64(len(tail)) {
			return nil, pqcrypto.ErrCorruptFooter
		}
		return tail[off : off+length], nil
	}
	buf := make([]byte, length)
	if _, err := src.ReadAt(buf, start); err != nil {
		return nil, pqcrypto.ErrCorruptFooter
	}
	return buf, nil
}

func readPlaintextVariant(src Source, fileSize int64, tail []byte, decProps *pqcrypto.FileDecryptionProperties, codec metadata.MetadataCodec, logger hclog.Logger) (*ParsedFooter, error) {
	lenOff := fileSize - 8
	lenBuf, err := readTailSlice(src, fileSize, tail, lenOff, 4)
	if err != nil {
		return nil, err
	}
	metadataLen := int64(binary.LittleEndian.Uint32(lenBuf))
	if 8+metadataLen > fileSize {
		return nil, pqcrypto.ErrCorruptFooter
	}

	metadataStart := fileSize - 8 - metadataLen
	rawMetadata, err := readTailSlice(src, fileSize, tail, metadataStart, metadataLen)
	if err != nil {
		return nil, err
	}

	// The plaintext-footer variant carries the encryption algorithm
	// descriptor inline within the regular footer structure rather than
	// as a separate prefix.
	algo, encrypted, plainFooter, envelopeConsumed, err := codec.PeekFooterEnvelope(rawMetadata)
	if err != nil {
		return nil, pqcrypto.ErrMetadataParse
	}

	if !encrypted {
		return &ParsedFooter{Variant: VariantPlaintext, FooterBytes: plainFooter, Encrypted: false}, nil
	}

	if decProps == nil {
		return nil, pqcrypto.ErrNoDecryptionProperties
	}

	algo, err = reconcileAadPrefix(algo, decProps)
	if err != nil {
		return nil, err
	}

	fileDecryptor := pqcrypto.NewFileDecryptor(decProps, algo)

	trailerStart := envelopeConsumed + len(plainFooter)
	if decProps.CheckPlaintextFooterIntegrity {
		if len(rawMetadata) < trailerStart+trailerLen {
			return nil, pqcrypto.ErrFooterSignatureInvalid
		}
		trailer := rawMetadata[trailerStart : trailerStart+trailerLen]
		signer, err := fileDecryptor.GetFooterSigningDecryptor()
		if err != nil {
			return nil, err
		}
		if err := signer.VerifySignedFooter(plainFooter, trailer); err != nil {
			return nil, err
		}
	} else if len(rawMetadata) < trailerStart+trailerLen {
		logger.Warn("plaintext footer lacks integrity trailer and integrity check is disabled")
	}

	return &ParsedFooter{
		Variant:     VariantPlaintext,
		FooterBytes: plainFooter,
		Encrypted:   true,
		FileAAD:     fileDecryptor.FileAAD(),
		Decryptor:   fileDecryptor,
	}, nil
}

func readEncryptedFooterVariant(src Source, fileSize int64, tail []byte, decProps *pqcrypto.FileDecryptionProperties, codec metadata.MetadataCodec, logger hclog.Logger) (*ParsedFooter, error) {
	lenOff := fileSize - 8
	lenBuf, err := readTailSlice(src, fileSize, tail, lenOff, 4)
	if err != nil {
		return nil, err
	}
	footerLen := int64(binary.LittleEndian.Uint32(lenBuf))
	if 8+footerLen > fileSize {
		return nil, pqcrypto.ErrCorruptFooter
	}

	cryptoMetaStart := fileSize - 8 - footerLen
	// Crypto metadata is of unknown length ahead of time; read the whole
	// remaining region once and let the codec report how much it used.
	region, err := readTailSlice(src, fileSize, tail, cryptoMetaStart, footerLen)
	if err != nil {
		return nil, err
	}

	if decProps == nil {
		return nil, pqcrypto.ErrNoDecryptionProperties
	}

	cryptoMeta, consumed, err := codec.DecodeFileCryptoMetaData(region)
	if err != nil {
		return nil, pqcrypto.ErrMetadataParse
	}

	algo, err := reconcileAadPrefix(cryptoMeta.EncryptionAlgorithm, decProps)
	if err != nil {
		return nil, err
	}

	// With no explicit footer key, the footer key is resolved through the
	// key retriever from the footer key metadata stored in the file.
	if len(decProps.FooterKey) == 0 && decProps.KeyRetriever != nil && len(cryptoMeta.KeyMetadata) > 0 {
		key, err := decProps.KeyRetriever.Retrieve(cryptoMeta.KeyMetadata)
		if err != nil {
			return nil, err
		}
		resolved := *decProps
		resolved.FooterKey = key
		decProps = &resolved
	}

	fileDecryptor := pqcrypto.NewFileDecryptor(decProps, algo)
	footerFrame := region[consumed:]

	footerDecryptor, err := fileDecryptor.GetFooterDecryptor()
	if err != nil {
		return nil, err
	}
	plaintext, err := footerDecryptor.Decrypt(footerFrame)
	if err != nil {
		return nil, err
	}

	return &ParsedFooter{
		Variant:     VariantEncryptedFooter,
		FooterBytes: plaintext,
		Encrypted:   true,
		FileAAD:     fileDecryptor.FileAAD(),
		Decryptor:   fileDecryptor,
	}, nil
}

// reconcileAadPrefix implements the §4.6.A.3.c-e prefix reconciliation
// shared by both footer variants: stored vs. caller-supplied prefix
// matching, the supply_aad_prefix escape hatch, and the optional verifier
// hook.
func reconcileAadPrefix(algo pqcrypto.EncryptionAlgorithm, decProps *pqcrypto.FileDecryptionProperties) (pqcrypto.EncryptionAlgorithm, error) {
	stored := algo.AadPrefix
	supplied := decProps.AadPrefix

	switch {
	case len(stored) > 0 && len(supplied) > 0:
		if !bytes.Equal(stored, supplied) {
			return algo, pqcrypto.ErrAadPrefixMismatch
		}
	case len(stored) == 0 && algo.SupplyAadPrefix:
		if len(supplied) == 0 {
			return algo, pqcrypto.ErrAadPrefixMissing
		}
		algo.AadPrefix = supplied
	case len(stored) == 0 && len(supplied) > 0:
		algo.AadPrefix = supplied
	}

	if decProps.AadPrefixVerifier != nil {
		if err := decProps.AadPrefixVerifier.Verify(algo.AadPrefix); err != nil {
			return algo, err
		}
	}
	return algo, nil
}

// ChunkDecryptors resolves the (meta, data) decryptor pair a page reader
// should use for one column chunk, per §4.6's per-column-chunk dispatch.
// A nil pair with a nil error means the column is unencrypted.
func ChunkDecryptors(parsed *ParsedFooter, chunkMeta metadata.ColumnCryptoMetaData, present bool, rowGroupOrdinal, columnOrdinal int16) (meta, data *pqcrypto.Decryptor, err error) {
	if !present {
		return nil, nil, nil
	}
	if chunkMeta.EncryptedWithFooterKey {
		meta, err = parsed.Decryptor.GetColumnMetaDecryptor(chunkMeta.PathInSchema, rowGroupOrdinal, columnOrdinal, true, nil)
		if err != nil {
			return nil, nil, err
		}
		data, err = parsed.Decryptor.GetColumnDataDecryptor(chunkMeta.PathInSchema, rowGroupOrdinal, columnOrdinal, true, nil)
		return meta, data, err
	}

	meta, err = parsed.Decryptor.GetColumnMetaDecryptor(chunkMeta.PathInSchema, rowGroupOrdinal, columnOrdinal, false, chunkMeta.KeyMetadata)
	if err != nil {
		return nil, nil, err
	}
	data, err = parsed.Decryptor.GetColumnDataDecryptor(chunkMeta.PathInSchema, rowGroupOrdinal, columnOrdinal, false, chunkMeta.KeyMetadata)
	return meta, data, err
}
