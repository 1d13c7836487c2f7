package pqcrypto

import (
	"fmt"

	"github.com/newrevit13/parquetcrypt/internal/aad"
	"github.com/newrevit13/parquetcrypt/internal/aead"
	"github.com/newrevit13/parquetcrypt/metrics"
)

// Decryptor performs module decryption for one (key, AAD context) pair,
// mirroring Encryptor.
type Decryptor struct {
	engine  *aead.Decryptor
	key     []byte
	fileAAD []byte
	current []byte
}

// FileAAD returns the file-level AAD root this decryptor was built with.
func (d *Decryptor) FileAAD() []byte { return d.fileAAD }

// CiphertextSizeDelta returns the plaintext-to-ciphertext growth for this
// decryptor's cipher.
func (d *Decryptor) CiphertextSizeDelta() int { return d.engine.CiphertextSizeDelta() }

// SetAAD replaces the current module AAD.
func (d *Decryptor) SetAAD(moduleAAD []byte) { d.current = moduleAAD }

// SetPageOrdinal rewrites the page ordinal of the current module AAD
// in-place.
func (d *Decryptor) SetPageOrdinal(pageOrdinal int16) error {
	return aad.QuickUpdatePageAAD(d.current, pageOrdinal)
}

// Decrypt parses and decrypts input under the current AAD.
func (d *Decryptor) Decrypt(input []byte) ([]byte, error) {
	plaintext, err := d.engine.Decrypt(input, d.key, d.current)
	switch err {
	case nil:
		return plaintext, nil
	case aead.ErrAeadFailure:
		return nil, ErrAeadFailure
	case aead.ErrKeyLengthMismatch:
		return nil, ErrKeyLengthMismatch
	default:
		return nil, err
	}
}

// VerifySignedFooter verifies a plaintext-footer integrity trailer against
// footerPlaintext under the current AAD.
func (d *Decryptor) VerifySignedFooter(footerPlaintext, trailer []byte) error {
	if err := d.engine.VerifySignedFooter(footerPlaintext, d.key, d.current, trailer); err != nil {
		return ErrFooterSignatureInvalid
	}
	return nil
}

func cipherModeForDecrypt(alg Algorithm) aead.Mode { return cipherMode(alg) }

// FileDecryptor vends Decryptor instances for one file read, maintaining
// one AES cipher instance per (module class, key length) pair and
// resolving column keys via explicit properties or the key retriever.
type FileDecryptor struct {
	props *FileDecryptionProperties
	algo  EncryptionAlgorithm

	metaCiphers [3]*aead.Decryptor
	dataCiphers [3]*aead.Decryptor

	footerDecryptor        *Decryptor
	footerSigningDecryptor *Decryptor
	columnMeta             map[ColumnPath]*Decryptor
	columnData             map[ColumnPath]*Decryptor

	fileAAD []byte
}

// NewFileDecryptor builds a FileDecryptor for props against the file's
// stored encryption algorithm descriptor (already AAD-reconciled by the
// caller — see the footer package).
func NewFileDecryptor(props *FileDecryptionProperties, algo EncryptionAlgorithm) *FileDecryptor {
	return &FileDecryptor{
		props:      props,
		algo:       algo,
		columnMeta: make(map[ColumnPath]*Decryptor),
		columnData: make(map[ColumnPath]*Decryptor),
		fileAAD:    algo.FileAAD(),
	}
}

// FileAAD returns the file AAD root this decryptor derived from the
// reconciled algorithm descriptor.
func (f *FileDecryptor) FileAAD() []byte { return f.fileAAD }

func (f *FileDecryptor) footerKey() ([]byte, error) {
	if len(f.props.FooterKey) == 0 {
		return nil, ErrKeyUnavailable
	}
	return f.props.FooterKey, nil
}

func (f *FileDecryptor) metaCipher(keyLen int) (*aead.Decryptor, error) {
	slot, err := keySlot(keyLen)
	if err != nil {
		return nil, err
	}
	if f.metaCiphers[slot] == nil {
		dec, err := aead.NewDecryptor(cipherModeForDecrypt(f.algo.Cipher), keyLen, true)
		if err != nil {
			return nil, err
		}
		f.metaCiphers[slot] = dec
	}
	return f.metaCiphers[slot], nil
}

func (f *FileDecryptor) dataCipher(keyLen int) (*aead.Decryptor, error) {
	slot, err := keySlot(keyLen)
	if err != nil {
		return nil, err
	}
	if f.dataCiphers[slot] == nil {
		dec, err := aead.NewDecryptor(cipherModeForDecrypt(f.algo.Cipher), keyLen, false)
		if err != nil {
			return nil, err
		}
		f.dataCiphers[slot] = dec
	}
	return f.dataCiphers[slot], nil
}

// GetFooterDecryptor returns the decryptor used for the encrypted footer
// in encrypted-footer mode, or for metadata parsing generally.
func (f *FileDecryptor) GetFooterDecryptor() (*Decryptor, error) {
	if f.footerDecryptor == nil {
		key, err := f.footerKey()
		if err != nil {
			return nil, err
		}
		engine, err := f.metaCipher(len(key))
		if err != nil {
			return nil, err
		}
		footerAAD, err := aad.BuildFooterAAD(f.fileAAD)
		if err != nil {
			return nil, err
		}
		f.footerDecryptor = &Decryptor{engine: engine, key: key, fileAAD: f.fileAAD, current: footerAAD}
	}
	return f.footerDecryptor, nil
}

// GetFooterSigningDecryptor returns the decryptor used to verify a
// plaintext-footer's integrity trailer.
func (f *FileDecryptor) GetFooterSigningDecryptor() (*Decryptor, error) {
	if f.footerSigningDecryptor == nil {
		key, err := f.footerKey()
		if err != nil {
			return nil, err
		}
		engine, err := f.metaCipher(len(key))
		if err != nil {
			return nil, err
		}
		footerAAD, err := aad.BuildFooterAAD(f.fileAAD)
		if err != nil {
			return nil, err
		}
		f.footerSigningDecryptor = &Decryptor{engine: engine, key: key, fileAAD: f.fileAAD, current: footerAAD}
	}
	return f.footerSigningDecryptor, nil
}

// ResolveColumnKey implements the §4.5 key resolution order for a non
// encrypted-with-footer-key column: explicit decryption properties, then
// file-stored key metadata via the configured retriever, else
// KeyUnavailable.
func (f *FileDecryptor) ResolveColumnKey(path ColumnPath, storedKeyMetadata []byte) ([]byte, error) {
	if key := f.props.ColumnKey(path); len(key) > 0 {
		return key, nil
	}
	if len(storedKeyMetadata) > 0 && f.props.KeyRetriever != nil {
		key, err := f.props.KeyRetriever.Retrieve(storedKeyMetadata)
		if err == nil && len(key) > 0 {
			return key, nil
		}
	}
	metrics.KeyUnavailableTotal.Inc()
	return nil, fmt.Errorf("%w: %s", ErrKeyUnavailable, path)
}

// GetColumnMetaDecryptor returns the column-metadata decryptor for path.
// encryptedWithFooterKey selects the footer key path; otherwise
// storedKeyMetadata is resolved per ResolveColumnKey.
func (f *FileDecryptor) GetColumnMetaDecryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16, encryptedWithFooterKey bool, storedKeyMetadata []byte) (*Decryptor, error) {
	if dec, ok := f.columnMeta[path]; ok {
		return dec, nil
	}
	dec, err := f.buildColumnDecryptor(path, rowGroupOrdinal, columnOrdinal, true, encryptedWithFooterKey, storedKeyMetadata)
	if err != nil {
		return nil, err
	}
	f.columnMeta[path] = dec
	return dec, nil
}

// GetColumnDataDecryptor returns the column-data decryptor for path.
func (f *FileDecryptor) GetColumnDataDecryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16, encryptedWithFooterKey bool, storedKeyMetadata []byte) (*Decryptor, error) {
	if dec, ok := f.columnData[path]; ok {
		return dec, nil
	}
	dec, err := f.buildColumnDecryptor(path, rowGroupOrdinal, columnOrdinal, false, encryptedWithFooterKey, storedKeyMetadata)
	if err != nil {
		return nil, err
	}
	f.columnData[path] = dec
	return dec, nil
}

func (f *FileDecryptor) buildColumnDecryptor(path ColumnPath, rowGroupOrdinal, columnOrdinal int16, metadata, encryptedWithFooterKey bool, storedKeyMetadata []byte) (*Decryptor, error) {
	var key []byte
	var err error
	if encryptedWithFooterKey {
		key, err = f.footerKey()
	} else {
		key, err = f.ResolveColumnKey(path, storedKeyMetadata)
	}
	if err != nil {
		return nil, err
	}

	var engine *aead.Decryptor
	if metadata {
		engine, err = f.metaCipher(len(key))
	} else {
		engine, err = f.dataCipher(len(key))
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

	return &Decryptor{engine: engine, key: key, fileAAD: f.fileAAD, current: moduleAAD}, nil
}
