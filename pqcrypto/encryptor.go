package pqcrypto

import (
	"golang.org/x/xerrors"

	"github.com/newrevit13/parquetcrypt/internal/aad"
	"github.com/newrevit13/parquetcrypt/internal/aead"
)

func cipherMode(alg Algorithm) aead.Mode {
	if alg == AlgorithmAesGcmCtrV1 {
		return aead.CTRMode
	}
	return aead.GCMMode
}

func keySlot(keyLen int) (int, error) {
	switch keyLen {
	case 16:
		return 0, nil
	case 24:
		return 1, nil
	case 32:
		return 2, nil
	default:
		return 0, ErrKeyLengthInvalid
	}
}

// Encryptor performs module encryption for one (key, AAD context) pair. It
// is produced by a FileEncryptor for a specific footer or column slot and
// carries a mutable current module AAD that the caller updates as it moves
// across row groups, columns, and pages.
type Encryptor struct {
	engine  *aead.Encryptor
	key     []byte
	fileAAD []byte
	current []byte
}

// FileAAD returns the file-level AAD root this encryptor was built with.
func (e *Encryptor) FileAAD() []byte { return e.fileAAD }

// CiphertextSizeDelta returns the plaintext-to-ciphertext growth for this
// encryptor's cipher.
func (e *Encryptor) CiphertextSizeDelta() int { return e.engine.CiphertextSizeDelta() }

// SetAAD replaces the current module AAD, typically built once per
// row-group/column-chunk via internal/aad.BuildModuleAAD.
func (e *Encryptor) SetAAD(moduleAAD []byte) { e.current = moduleAAD }

// SetPageOrdinal rewrites the page ordinal of the current module AAD
// in-place, avoiding a full rebuild while iterating pages in a chunk.
func (e *Encryptor) SetPageOrdinal(pageOrdinal int16) error {
	return aad.QuickUpdatePageAAD(e.current, pageOrdinal)
}

// Encrypt frames and encrypts plaintext under the current AAD.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return e.engine.Encrypt(plaintext, e.key, e.current)
}

// SignedFooterEncrypt encrypts plaintext under the current AAD and a
// caller-supplied deterministic nonce, for the plaintext-footer integrity
// trailer.
func (e *Encryptor) SignedFooterEncrypt(plaintext, nonce []byte) ([]byte, error) {
	return e.engine.SignedFooterEncrypt(plaintext, e.key, e.current, nonce)
}

// FileEncryptor vends Encryptor instances for one file write, maintaining
// one AES cipher instance per (module class, key length) pair and one
// Encryptor per (footer|column path, meta|data) slot.
type FileEncryptor struct {
	props *FileEncryptionProperties

	metaCiphers [3]*aead.Encryptor
	dataCiphers [3]*aead.Encryptor

	footerEncryptor        *Encryptor
	footerSigningEncryptor *Encryptor
	columnMeta             map[ColumnPath]*Encryptor
	columnData             map[ColumnPath]*Encryptor

	fileAAD []byte
}

// NewFileEncryptor builds a FileEncryptor for props, deriving the file AAD
// root from algo's AAD prefix and aad_file_unique (see NewAadFileUnique).
func NewFileEncryptor(props *FileEncryptionProperties, algo EncryptionAlgorithm) (*FileEncryptor, error) {
	return &FileEncryptor{
		props:      props,
		columnMeta: make(map[ColumnPath]*Encryptor),
		columnData: make(map[ColumnPath]*Encryptor),
		fileAAD:    algo.FileAAD(),
	}, nil
}

func (f *FileEncryptor) metaCipher(keyLen int) (*aead.Encryptor, error) {
	slot, err := keySlot(keyLen)
	if err != nil {
		return nil, err
	}
	if f.metaCiphers[slot] == nil {
		enc, err := aead.NewEncryptor(cipherMode(f.props.Cipher), keyLen, true)
		if err != nil {
			return nil, err
		}
		f.metaCiphers[slot] = enc
	}
	return f.metaCiphers[slot], nil
}

func (f *FileEncryptor) dataCipherForKeyLen(keyLen int) (*aead.Encryptor, error) {
	slot, err := keySlot(keyLen)
	if err != nil {
		return nil, err
	}
	if f.dataCiphers[slot] == nil {
		enc, err := aead.NewEncryptor(cipherMode(f.props.Cipher), keyLen, false)
		if err != nil {
			return nil, err
		}
		f.dataCiphers[slot] = enc
	}
	return f.dataCiphers[slot], nil
}

// GetFooterEncryptor returns the encryptor used to encrypt the footer
// bytes in encrypted-footer mode.
func (f *FileEncryptor) GetFooterEncryptor() (*Encryptor, error) {
	if f.footerEncryptor == nil {
		engine, err := f.metaCipher(len(f.props.FooterKey))
		if err != nil {
			return nil, err
		}
		footerAAD, err := aad.BuildFooterAAD(f.fileAAD)
		if err != nil {
			return nil, err
		}
		f.footerEncryptor = &Encryptor{engine: engine, key: f.props.FooterKey, fileAAD: f.fileAAD, current: footerAAD}
	}
	return f.footerEncryptor, nil
}

// GetFooterSigningEncryptor returns the encryptor used to produce the
// plaintext-footer integrity trailer via SignedFooterEncrypt.
func (f *FileEncryptor) GetFooterSigningEncryptor() (*Encryptor, error) {
	if f.footerSigningEncryptor == nil {
		engine, err := f.metaCipher(len(f.props.FooterKey))
		if err != nil {
			return nil, err
		}
		footerAAD, err := aad.BuildFooterAAD(f.fileAAD)
		if err != nil {
			return nil, err
		}
		f.footerSigningEncryptor = &Encryptor{engine: engine, key: f.props.FooterKey, fileAAD: f.fileAAD, current: footerAAD}
	}
	return f.footerSigningEncryptor, nil
}

// GetColumnMetaEncryptor returns the column-metadata encryptor for path,
// falling back to the footer key when the column is encrypted-with-footer-key.
func (f *FileEncryptor) GetColumnMetaEncryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16) (*Encryptor, error) {
	if enc, ok := f.columnMeta[path]; ok {
		return enc, nil
	}
	enc, err := f.buildColumnEncryptor(path, rowGroupOrdinal, columnOrdinal, true)
	if err != nil {
		return nil, err
	}
	f.columnMeta[path] = enc
	return enc, nil
}

// GetColumnDataEncryptor returns the column-data encryptor for path.
func (f *FileEncryptor) GetColumnDataEncryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16) (*Encryptor, error) {
	if enc, ok := f.columnData[path]; ok {
		return enc, nil
	}
	enc, err := f.buildColumnEncryptor(path, rowGroupOrdinal, columnOrdinal, false)
	if err != nil {
		return nil, err
	}
	f.columnData[path] = enc
	return enc, nil
}

func (f *FileEncryptor) buildColumnEncryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16, metadata bool) (*Encryptor, error) {
	colProps, ok := f.props.ColumnProperties(path)
	if !ok && len(f.props.Columns) == 0 {
		// With no per-column properties configured at all, every column is
		// encrypted with the footer key.
		colProps, ok = ColumnEncryptionProperties{Path: path, Encrypted: true}, true
	}
	if !ok || !colProps.Encrypted {
		return nil, xerrors.Errorf("pqcrypto: column %q is not configured for encryption", path)
	}

	key := colProps.Key
	if len(key) == 0 {
		key = f.props.FooterKey
	}

	var engine *aead.Encryptor
	var err error
	if metadata {
		engine, err = f.metaCipher(len(key))
	} else {
		engine, err = f.dataCipherForKeyLen(len(key))
	}
	if err != nil {
		return nil, err
	}

	moduleType := aad.ColumnMetaDataModule
	if !metadata {
		moduleType = aad.DataPageModule
	}
	moduleAAD, err := aad.BuildModuleAAD(f.fileAAD, moduleType, rowGroupOrdinal, columnOrdinal, 0)
	if err != nil {
		return nil, err
	}

	return &Encryptor{engine: engine, key: key, fileAAD: f.fileAAD, current: moduleAAD}, nil
}
