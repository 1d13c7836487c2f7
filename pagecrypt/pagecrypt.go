// Package pagecrypt applies a column chunk's (meta, data) decryptor pair
// to each page header and page body it reads, tracking page ordinals
// within the chunk and building Additional Authenticated Data through
// internal/aad.
package pagecrypt

import (
	"errors"

	"github.com/newrevit13/parquetcrypt/internal/aad"
	"github.com/newrevit13/parquetcrypt/metrics"
	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

func moduleKind(moduleType aad.ModuleType) metrics.ModuleKind {
	switch moduleType {
	case aad.DataPageModule:
		return metrics.ModuleDataPage
	case aad.DictionaryPageModule:
		return metrics.ModuleDictionaryPage
	default:
		return metrics.ModulePageHeader
	}
}

// ErrPageOrdinalOutOfOrder names a page ordinal that violates monotonic
// page ordinals within a column chunk. Reader and Writer assign data page
// ordinals themselves and never return it.
var ErrPageOrdinalOutOfOrder = errors.New("pagecrypt: page ordinal out of order")

// ErrDictionaryPageAlreadyRead reports a second attempt to read a
// dictionary page within the same column chunk; at most one is permitted.
var ErrDictionaryPageAlreadyRead = errors.New("pagecrypt: column chunk already has a dictionary page")

// Reader decrypts page headers and page bodies for one column chunk,
// given the decryptor pair resolved by the footer package. A Reader with a
// nil decryptor pair passes bytes through unchanged —
// callers construct one per column chunk regardless of whether that
// chunk is encrypted.
type Reader struct {
	meta *pqcrypto.Decryptor
	data *pqcrypto.Decryptor

	rowGroupOrdinal int16
	columnOrdinal   int16

	dictionaryRead bool
	nextDataOrdinal int16
}

// NewReader builds a page reader for one column chunk. meta and data may
// both be nil, indicating the chunk is unencrypted.
func NewReader(meta, data *pqcrypto.Decryptor, rowGroupOrdinal, columnOrdinal int16) *Reader {
	return &Reader{meta: meta, data: data, rowGroupOrdinal: rowGroupOrdinal, columnOrdinal: columnOrdinal}
}

// Encrypted reports whether this column chunk carries any page-level
// encryption at all.
func (r *Reader) Encrypted() bool { return r.meta != nil || r.data != nil }

// ReadDictionaryPageHeader decrypts a dictionary page header, which always
// carries page ordinal 0 and may occur at most once per column chunk.
func (r *Reader) ReadDictionaryPageHeader(ciphertext []byte) ([]byte, error) {
	if r.dictionaryRead {
		return nil, ErrDictionaryPageAlreadyRead
	}
	plaintext, err := r.decryptModule(r.meta, aad.DictionaryPageHeaderModule, 0, ciphertext)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// ReadDictionaryPageBody decrypts a dictionary page body at ordinal 0,
// marking the chunk as having consumed its one permitted dictionary page.
func (r *Reader) ReadDictionaryPageBody(ciphertext []byte) ([]byte, error) {
	plaintext, err := r.decryptModule(r.data, aad.DictionaryPageModule, 0, ciphertext)
	if err != nil {
		return nil, err
	}
	r.dictionaryRead = true
	return plaintext, nil
}

// ReadDataPageHeader decrypts the next data page header in ordinal order,
// starting at 0 for the first data page of the chunk.
func (r *Reader) ReadDataPageHeader(ciphertext []byte) ([]byte, error) {
	return r.decryptModule(r.meta, aad.DataPageHeaderModule, r.nextDataOrdinal, ciphertext)
}

// ReadDataPageBody decrypts the data page body at the same ordinal as the
// most recently read header, then advances the ordinal.
func (r *Reader) ReadDataPageBody(ciphertext []byte) ([]byte, error) {
	plaintext, err := r.decryptModule(r.data, aad.DataPageModule, r.nextDataOrdinal, ciphertext)
	if err != nil {
		return nil, err
	}
	r.nextDataOrdinal++
	return plaintext, nil
}

// ResetForColumnChunk clears page-ordinal state, per the spec's resolution
// that page ordinals reset per column chunk (never accumulate across a
// row group's chunks).
func (r *Reader) ResetForColumnChunk(meta, data *pqcrypto.Decryptor) {
	r.meta = meta
	r.data = data
	r.dictionaryRead = false
	r.nextDataOrdinal = 0
}

func (r *Reader) decryptModule(dec *pqcrypto.Decryptor, moduleType aad.ModuleType, pageOrdinal int16, ciphertext []byte) ([]byte, error) {
	if dec == nil {
		return ciphertext, nil
	}
	moduleAAD, err := aad.BuildModuleAAD(dec.FileAAD(), moduleType, r.rowGroupOrdinal, r.columnOrdinal, pageOrdinal)
	if err != nil {
		return nil, err
	}
	dec.SetAAD(moduleAAD)
	plaintext, err := dec.Decrypt(ciphertext)
	if err != nil {
		metrics.ObserveDecryptFailure(moduleKind(moduleType))
		return nil, err
	}
	metrics.ObserveDecrypt(moduleKind(moduleType))
	return plaintext, nil
}

// Writer encrypts page headers and page bodies for one column chunk,
// mirroring Reader for the write path.
type Writer struct {
	meta *pqcrypto.Encryptor
	data *pqcrypto.Encryptor

	rowGroupOrdinal int16
	columnOrdinal   int16

	dictionaryWritten bool
	nextDataOrdinal   int16
}

// NewWriter builds a page writer for one column chunk.
func NewWriter(meta, data *pqcrypto.Encryptor, rowGroupOrdinal, columnOrdinal int16) *Writer {
	return &Writer{meta: meta, data: data, rowGroupOrdinal: rowGroupOrdinal, columnOrdinal: columnOrdinal}
}

// Encrypted reports whether this column chunk carries any page-level
// encryption at all.
func (w *Writer) Encrypted() bool { return w.meta != nil || w.data != nil }

// WriteDictionaryPageHeader encrypts a dictionary page header at ordinal 0.
func (w *Writer) WriteDictionaryPageHeader(plaintext []byte) ([]byte, error) {
	if w.dictionaryWritten {
		return nil, ErrDictionaryPageAlreadyRead
	}
	return w.encryptModule(w.meta, aad.DictionaryPageHeaderModule, 0, plaintext)
}

// WriteDictionaryPageBody encrypts a dictionary page body at ordinal 0.
func (w *Writer) WriteDictionaryPageBody(plaintext []byte) ([]byte, error) {
	if w.dictionaryWritten {
		return nil, ErrDictionaryPageAlreadyRead
	}
	ciphertext, err := w.encryptModule(w.data, aad.DictionaryPageModule, 0, plaintext)
	if err != nil {
		return nil, err
	}
	w.dictionaryWritten = true
	return ciphertext, nil
}

// WriteDataPageHeader encrypts the next data page header in ordinal order.
func (w *Writer) WriteDataPageHeader(plaintext []byte) ([]byte, error) {
	return w.encryptModule(w.meta, aad.DataPageHeaderModule, w.nextDataOrdinal, plaintext)
}

// WriteDataPageBody encrypts the data page body at the current ordinal,
// then advances it.
func (w *Writer) WriteDataPageBody(plaintext []byte) ([]byte, error) {
	ciphertext, err := w.encryptModule(w.data, aad.DataPageModule, w.nextDataOrdinal, plaintext)
	if err != nil {
		return nil, err
	}
	w.nextDataOrdinal++
	return ciphertext, nil
}

func (w *Writer) encryptModule(enc *pqcrypto.Encryptor, moduleType aad.ModuleType, pageOrdinal int16, plaintext []byte) ([]byte, error) {
	if enc == nil {
		return plaintext, nil
	}
	moduleAAD, err := aad.BuildModuleAAD(enc.FileAAD(), moduleType, w.rowGroupOrdinal, w.columnOrdinal, pageOrdinal)
	if err != nil {
		return nil, err
	}
	enc.SetAAD(moduleAAD)
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	metrics.ObserveEncrypt(moduleKind(moduleType))
	return ciphertext, nil
}

// ColumnIndexAAD builds the AAD for a column chunk's ColumnIndex module.
func ColumnIndexAAD(fileAAD []byte, rowGroupOrdinal, columnOrdinal int16) ([]byte, error) {
	return aad.BuildModuleAAD(fileAAD, aad.ColumnIndexModule, rowGroupOrdinal, columnOrdinal, 0)
}

// OffsetIndexAAD builds the AAD for a column chunk's OffsetIndex module.
func OffsetIndexAAD(fileAAD []byte, rowGroupOrdinal, columnOrdinal int16) ([]byte, error) {
	return aad.BuildModuleAAD(fileAAD, aad.OffsetIndexModule, rowGroupOrdinal, columnOrdinal, 0)
}
