// Package aead implements the AES-GCM-V1 and AES-GCM-CTR-V1 module ciphers
// used by the Parquet modular encryption engine, including the in-buffer
// length-prefixed ciphertext framing mandated by the format.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/xerrors"
)

// Mode selects which AES construction a cipher instance performs.
type Mode int

const (
	GCMMode Mode = iota
	CTRMode
)

const (
	// GCMTagLength is the AES-GCM authentication tag length in bytes.
	GCMTagLength = 16
	// NonceLength is the nonce length in bytes, shared by GCM and CTR.
	NonceLength = 12
	// LengthPrefixSize is the size of the little-endian frame length prefix.
	LengthPrefixSize = 4
	// ctrIVLength is the full CTR initial-counter-block length: a 12-byte
	// nonce followed by a 4-byte counter, per the Parquet format's CTR mode.
	ctrIVLength = 16
)

var (
	// ErrAeadFailure reports GCM tag verification failure or malformed
	// ciphertext framing.
	ErrAeadFailure = errors.New("aead: authentication or framing failure")
	// ErrKeyLengthMismatch reports a key whose length does not match the
	// length this cipher instance was constructed for.
	ErrKeyLengthMismatch = errors.New("aead: key length does not match cipher instance")
	// ErrKeyLengthInvalid reports a key length outside {16,24,32}.
	ErrKeyLengthInvalid = errors.New("aead: key length must be 16, 24, or 32 bytes")
)

func validKeyLength(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// CiphertextSizeDelta returns the number of bytes an encrypted buffer grows
// relative to its plaintext, for the given (cipher mode, metadata) pair.
// metadata=true forces GCM framing regardless of mode, since metadata
// modules are always authenticated; only page bodies may use CTR.
func CiphertextSizeDelta(mode Mode, metadata bool) int {
	delta := LengthPrefixSize + NonceLength
	if metadata || mode == GCMMode {
		delta += GCMTagLength
	}
	return delta
}

// Encryptor encrypts plaintext for a single (mode, key length) pair. One
// instance may be reused across many Encrypt calls with different keys of
// the same length; reuse with a mismatched key length is a caller bug
// (ErrKeyLengthMismatch), not a crypto failure.
type Encryptor struct {
	mode     Mode
	keyLen   int
	metadata bool
}

// NewEncryptor constructs an Encryptor for the given file cipher and key
// length. metadata forces GCM mode even when mode is CTR, per §4.2.
func NewEncryptor(mode Mode, keyLen int, metadata bool) (*Encryptor, error) {
	if !validKeyLength(keyLen) {
		return nil, ErrKeyLengthInvalid
	}
	effectiveMode := mode
	if metadata {
		effectiveMode = GCMMode
	}
	return &Encryptor{mode: effectiveMode, keyLen: keyLen, metadata: metadata}, nil
}

// CiphertextSizeDelta returns this encryptor's plaintext-to-ciphertext size
// delta.
func (e *Encryptor) CiphertextSizeDelta() int {
	return CiphertextSizeDelta(e.mode, e.metadata)
}

// Encrypt frames and encrypts plaintext under key and aad, returning the
// on-disk module bytes: length(4,LE) || nonce(12) || ciphertext || tag(16
// for GCM, absent for CTR).
func (e *Encryptor) Encrypt(plaintext, key, aad []byte) ([]byte, error) {
	if len(key) != e.keyLen {
		return nil, ErrKeyLengthMismatch
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Errorf("aead: building AES cipher: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, xerrors.Errorf("aead: generating nonce: %w", err)
	}

	switch e.mode {
	case GCMMode:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, xerrors.Errorf("aead: building GCM: %w", err)
		}
		if gcm.NonceSize() != NonceLength {
			return nil, xerrors.Errorf("aead: unexpected GCM nonce size %d", gcm.NonceSize())
		}
		if gcm.Overhead() != GCMTagLength {
			return nil, xerrors.Errorf("aead: unexpected GCM tag size %d", gcm.Overhead())
		}

		ciphertext := gcm.Seal(nil, nonce, plaintext, aad)
		frameLen := uint32(NonceLength + len(ciphertext))

		out := make([]byte, 0, LengthPrefixSize+int(frameLen))
		out = binary.LittleEndian.AppendUint32(out, frameLen)
		out = append(out, nonce...)
		out = append(out, ciphertext...)
		return out, nil

	case CTRMode:
		iv := make([]byte, ctrIVLength)
		copy(iv, nonce)
		iv[ctrIVLength-1] = 1

		stream := cipher.NewCTR(block, iv)
		ciphertext := make([]byte, len(plaintext))
		stream.XORKeyStream(ciphertext, plaintext)

		frameLen := uint32(NonceLength + len(ciphertext))
		out := make([]byte, 0, LengthPrefixSize+int(frameLen))
		out = binary.LittleEndian.AppendUint32(out, frameLen)
		out = append(out, nonce...)
		out = append(out, ciphertext...)
		return out, nil

	default:
		return nil, xerrors.Errorf("aead: unknown mode %d", e.mode)
	}
}

// SignedFooterEncrypt encrypts footer plaintext under a caller-supplied
// nonce, for the plaintext-footer integrity trailer. Only valid on a
// metadata (GCM) encryptor.
func (e *Encryptor) SignedFooterEncrypt(footer, key, aad, nonce []byte) ([]byte, error) {
	if e.mode != GCMMode {
		return nil, xerrors.New("aead: signed footer encrypt requires a GCM (metadata) encryptor")
	}
	if len(key) != e.keyLen {
		return nil, ErrKeyLengthMismatch
	}
	if len(nonce) != NonceLength {
		return nil, xerrors.Errorf("aead: nonce must be %d bytes, got %d", NonceLength, len(nonce))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Errorf("aead: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, xerrors.Errorf("aead: building GCM: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, footer, aad)
	frameLen := uint32(NonceLength + len(ciphertext))

	out := make([]byte, 0, LengthPrefixSize+int(frameLen))
	out = binary.LittleEndian.AppendUint32(out, frameLen)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decryptor decrypts module bytes for a single (mode, key length) pair.
type Decryptor struct {
	mode     Mode
	keyLen   int
	metadata bool
}

// NewDecryptor constructs a Decryptor mirroring NewEncryptor's parameters.
func NewDecryptor(mode Mode, keyLen int, metadata bool) (*Decryptor, error) {
	if !validKeyLength(keyLen) {
		return nil, ErrKeyLengthInvalid
	}
	effectiveMode := mode
	if metadata {
		effectiveMode = GCMMode
	}
	return &Decryptor{mode: effectiveMode, keyLen: keyLen, metadata: metadata}, nil
}

// CiphertextSizeDelta returns this decryptor's plaintext-to-ciphertext size
// delta.
func (d *Decryptor) CiphertextSizeDelta() int {
	return CiphertextSizeDelta(d.mode, d.metadata)
}

// Decrypt parses the on-disk framing of input and returns the recovered
// plaintext. GCM authentication failure, a truncated frame, or a length
// prefix inconsistent with len(input) all report ErrAeadFailure.
func (d *Decryptor) Decrypt(input, key, aad []byte) ([]byte, error) {
	if len(key) != d.keyLen {
		return nil, ErrKeyLengthMismatch
	}
	if len(input) < LengthPrefixSize+NonceLength {
		return nil, ErrAeadFailure
	}

	frameLen := binary.LittleEndian.Uint32(input)
	if int(frameLen) != len(input)-LengthPrefixSize {
		return nil, ErrAeadFailure
	}

	nonce := input[LengthPrefixSize : LengthPrefixSize+NonceLength]
	body := input[LengthPrefixSize+NonceLength:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Errorf("aead: building AES cipher: %w", err)
	}

	switch d.mode {
	case GCMMode:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, xerrors.Errorf("aead: building GCM: %w", err)
		}
		plaintext, err := gcm.Open(nil, nonce, body, aad)
		if err != nil {
			return nil, ErrAeadFailure
		}
		return plaintext, nil

	case CTRMode:
		iv := make([]byte, ctrIVLength)
		copy(iv, nonce)
		iv[ctrIVLength-1] = 1

		stream := cipher.NewCTR(block, iv)
		plaintext := make([]byte, len(body))
		stream.XORKeyStream(plaintext, body)
		return plaintext, nil

	default:
		return nil, xerrors.Errorf("aead: unknown mode %d", d.mode)
	}
}

// VerifySignedFooter recomputes SignedFooterEncrypt with the stored nonce
// and compares the resulting GCM tag against the tag stored in the
// nonce(12)||tag(16) trailer, used to validate the plaintext-footer trailer
// without needing to separately re-derive the footer bytes.
func (d *Decryptor) VerifySignedFooter(footerPlaintext, key, aad, trailer []byte) error {
	if len(trailer) != NonceLength+GCMTagLength {
		return ErrAeadFailure
	}
	nonce := trailer[:NonceLength]
	wantTag := trailer[NonceLength:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return xerrors.Errorf("aead: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return xerrors.Errorf("aead: building GCM: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, footerPlaintext, aad)
	gotTag := sealed[len(sealed)-GCMTagLength:]

	if len(gotTag) != len(wantTag) {
		return ErrAeadFailure
	}
	diff := byte(0)
	for i := range gotTag {
		diff |= gotTag[i] ^ wantTag[i]
	}
	if diff != 0 {
		return ErrAeadFailure
	}
	return nil
}
