// Package pqfile assembles and parses the interop test driver's
// self-contained file container: a single row group of the four
// dataset columns, each an independently (optionally) encrypted column
// chunk, followed by a footer describing their layout. The container
// format is private to this driver; it is not wire-compatible with a
// Thrift-encoded Parquet file.
package pqfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/newrevit13/parquetcrypt/footer"
	"github.com/newrevit13/parquetcrypt/internal/dataset"
	"github.com/newrevit13/parquetcrypt/metadata"
	"github.com/newrevit13/parquetcrypt/pagecrypt"
	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

// ErrColumnSkipped is returned in a VerifyResult's per-column error slot
// when a column could not be decrypted and was therefore not verified.
var ErrColumnSkipped = errors.New("pqfile: column skipped, key unavailable")

type columnDescriptor struct {
	Path                   string `json:"path"`
	Offset                 int64  `json:"offset"`
	Length                 int64  `json:"length"`
	Encrypted              bool   `json:"encrypted,omitempty"`
	EncryptedWithFooterKey bool   `json:"encrypted_with_footer_key,omitempty"`
	KeyMetadata            []byte `json:"key_metadata,omitempty"`
}

type footerBody struct {
	NumRows int64              `json:"num_rows"`
	Columns []columnDescriptor `json:"columns"`
}

var codec = metadata.JSONCodec{}

// WriteOptions configures one file's worth of container output.
type WriteOptions struct {
	EncryptionProperties *pqcrypto.FileEncryptionProperties
	Algorithm            pqcrypto.EncryptionAlgorithm
	// SigningNonce is the deterministic nonce used for the plaintext-footer
	// integrity trailer; ignored in encrypted-footer mode.
	SigningNonce []byte
	NumRows      int
}

// Write generates the dataset, encrypts each configured column chunk, and
// writes the resulting container to path.
func Write(path string, opts WriteOptions) error {
	numRows := opts.NumRows
	if numRows == 0 {
		numRows = dataset.NumRowsPerRowGroup
	}

	fileEnc, err := pqcrypto.NewFileEncryptor(opts.EncryptionProperties, opts.Algorithm)
	if err != nil {
		return fmt.Errorf("pqfile: building file encryptor: %w", err)
	}

	var body []byte
	descriptors := make([]columnDescriptor, 0, len(dataset.ColumnNames))

	for ordinal, name := range dataset.ColumnNames {
		colPath := pqcrypto.NewColumnPath(name)
		colProps, configured := opts.EncryptionProperties.ColumnProperties(colPath)

		var metaEnc, dataEnc *pqcrypto.Encryptor
		if configured && colProps.Encrypted {
			metaEnc, err = fileEnc.GetColumnMetaEncryptor(colPath, 0, int16(ordinal))
			if err != nil {
				return fmt.Errorf("pqfile: column %q meta encryptor: %w", name, err)
			}
			dataEnc, err = fileEnc.GetColumnDataEncryptor(colPath, 0, int16(ordinal))
			if err != nil {
				return fmt.Errorf("pqfile: column %q data encryptor: %w", name, err)
			}
		}

		w := pagecrypt.NewWriter(metaEnc, dataEnc, 0, int16(ordinal))
		plaintext, err := dataset.EncodeColumn(name, numRows)
		if err != nil {
			return err
		}
		ciphertext, err := w.WriteDataPageBody(plaintext)
		if err != nil {
			return fmt.Errorf("pqfile: encrypting column %q: %w", name, err)
		}

		desc := columnDescriptor{Path: name, Offset: int64(len(body)), Length: int64(len(ciphertext))}
		if configured && colProps.Encrypted {
			desc.Encrypted = true
			desc.EncryptedWithFooterKey = len(colProps.Key) == 0
			desc.KeyMetadata = colProps.KeyMetadata
		}
		descriptors = append(descriptors, desc)
		body = append(body, ciphertext...)
	}

	fb := footerBody{NumRows: int64(numRows), Columns: descriptors}
	footerBytes, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("pqfile: encoding footer body: %w", err)
	}

	// When the properties disable storing the AAD prefix, the stored
	// descriptor omits it and tells the reader to supply it.
	storedAlgo := opts.Algorithm
	if len(storedAlgo.AadPrefix) > 0 && !opts.EncryptionProperties.StoreAadPrefixInFile {
		storedAlgo.AadPrefix = nil
		storedAlgo.SupplyAadPrefix = true
	}

	var tail []byte
	if opts.EncryptionProperties.EncryptedFooter {
		fcmd := metadata.FileCryptoMetaData{
			EncryptionAlgorithm: storedAlgo,
			KeyMetadata:         opts.EncryptionProperties.FooterKeyMetadata,
		}
		cryptoMetaBytes, err := codec.EncodeFileCryptoMetaData(fcmd)
		if err != nil {
			return fmt.Errorf("pqfile: encoding crypto metadata: %w", err)
		}
		tail, err = footer.WriteEncryptedFooter(fileEnc, cryptoMetaBytes, footerBytes)
		if err != nil {
			return fmt.Errorf("pqfile: writing encrypted footer: %w", err)
		}
	} else {
		tail, err = footer.WritePlaintext(fileEnc, storedAlgo, opts.EncryptionProperties, codec, footerBytes, opts.SigningNonce)
		if err != nil {
			return fmt.Errorf("pqfile: writing plaintext footer: %w", err)
		}
	}

	out := append(body, tail...)
	return os.WriteFile(path, out, 0o644)
}

// FileSource adapts an *os.File to footer.Source.
type FileSource struct {
	f *os.File
}

// OpenFileSource opens path for random-access reading.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

// Size implements footer.Source.
func (s *FileSource) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close releases the underlying file handle.
func (s *FileSource) Close() error { return s.f.Close() }

// ColumnResult reports one column's verification outcome.
type ColumnResult struct {
	Path  string
	Error error
}

// VerifyResult is the outcome of reading and verifying one container.
type VerifyResult struct {
	Variant footer.Variant
	Columns []ColumnResult
}

// Read parses path's footer, decrypts and verifies each column chunk
// against the dataset formulas, and reports the outcome. A column whose
// key cannot be resolved is reported with ErrColumnSkipped rather than
// failing the whole read, matching the "missing key for one column"
// interop scenario.
func Read(src footer.Source, decProps *pqcrypto.FileDecryptionProperties, logger hclog.Logger) (*VerifyResult, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	parsed, err := footer.Read(src, decProps, codec, logger)
	if err != nil {
		return nil, fmt.Errorf("pqfile: reading footer: %w", err)
	}

	var fb footerBody
	if err := json.Unmarshal(parsed.FooterBytes, &fb); err != nil {
		return nil, fmt.Errorf("pqfile: decoding footer body: %w", err)
	}

	result := &VerifyResult{Variant: parsed.Variant}

	for ordinal, desc := range fb.Columns {
		var meta, data *pqcrypto.Decryptor
		if desc.Encrypted {
			chunkMeta := metadata.ColumnCryptoMetaData{
				EncryptedWithFooterKey: desc.EncryptedWithFooterKey,
				PathInSchema:           pqcrypto.NewColumnPath(desc.Path),
				KeyMetadata:            desc.KeyMetadata,
			}
			meta, data, err = footer.ChunkDecryptors(parsed, chunkMeta, true, 0, int16(ordinal))
			if err != nil {
				logger.Warn("skipping column, key unavailable", "column", desc.Path, "error", err)
				result.Columns = append(result.Columns, ColumnResult{Path: desc.Path, Error: fmt.Errorf("%w: %s", ErrColumnSkipped, desc.Path)})
				continue
			}
		}

		r := pagecrypt.NewReader(meta, data, 0, int16(ordinal))
		ciphertext := make([]byte, desc.Length)
		if _, err := src.ReadAt(ciphertext, desc.Offset); err != nil {
			return nil, fmt.Errorf("pqfile: reading column %q body: %w", desc.Path, err)
		}
		plaintext, err := r.ReadDataPageBody(ciphertext)
		if err != nil {
			result.Columns = append(result.Columns, ColumnResult{Path: desc.Path, Error: err})
			continue
		}
		if err := dataset.VerifyColumn(desc.Path, plaintext, int(fb.NumRows)); err != nil {
			result.Columns = append(result.Columns, ColumnResult{Path: desc.Path, Error: err})
			continue
		}
		result.Columns = append(result.Columns, ColumnResult{Path: desc.Path})
	}

	return result, nil
}
