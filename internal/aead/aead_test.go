package aead

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randKey(t *testing.T, n int) []byte {
	t.Helper()
	key := make([]byte, n)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestGCMEncryptDecryptRoundTrip(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		key := randKey(t, keyLen)
		enc, err := NewEncryptor(GCMMode, keyLen, true)
		require.NoError(t, err)
		dec, err := NewDecryptor(GCMMode, keyLen, true)
		require.NoError(t, err)

		plaintext := []byte("page header bytes go here, arbitrary length")
		aad := []byte("file-aad-module-3")

		frame, err := enc.Encrypt(plaintext, key, aad)
		require.NoError(t, err)

		got, err := dec.Decrypt(frame, key, aad)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestCTRModeUnauthenticatedBody(t *testing.T) {
	key := randKey(t, 16)
	enc, err := NewEncryptor(CTRMode, 16, false)
	require.NoError(t, err)
	dec, err := NewDecryptor(CTRMode, 16, false)
	require.NoError(t, err)

	plaintext := []byte("data page body")
	frame, err := enc.Encrypt(plaintext, key, nil)
	require.NoError(t, err)

	// CTR framing carries no 16-byte tag: frame = 4(len) + 12(nonce) + len(plaintext).
	require.Equal(t, LengthPrefixSize+NonceLength+len(plaintext), len(frame))

	got, err := dec.Decrypt(frame, key, nil)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestMetadataForcesGCMEvenUnderCTRFile(t *testing.T) {
	enc, err := NewEncryptor(CTRMode, 16, true)
	require.NoError(t, err)
	require.Equal(t, GCMMode, enc.mode)
	require.Equal(t, GCMTagLength, enc.CiphertextSizeDelta()-LengthPrefixSize-NonceLength)
}

func TestTamperedGCMFrameFailsAuthentication(t *testing.T) {
	key := randKey(t, 16)
	enc, _ := NewEncryptor(GCMMode, 16, true)
	dec, _ := NewDecryptor(GCMMode, 16, true)

	frame, err := enc.Encrypt([]byte("footer bytes"), key, []byte("aad"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	frame[len(frame)-1] ^= 0xFF

	if _, err := dec.Decrypt(frame, key, []byte("aad")); err != ErrAeadFailure {
		t.Fatalf("expected ErrAeadFailure, got %v", err)
	}
}

func TestWrongKeyLengthRejected(t *testing.T) {
	enc, err := NewEncryptor(GCMMode, 16, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = enc.Encrypt([]byte("x"), make([]byte, 24), nil)
	if err != ErrKeyLengthMismatch {
		t.Fatalf("expected ErrKeyLengthMismatch, got %v", err)
	}
}

func TestInvalidKeyLengthRejectedAtConstruction(t *testing.T) {
	for _, n := range []int{15, 17, 23, 25, 31, 33} {
		if _, err := NewEncryptor(GCMMode, n, true); err != ErrKeyLengthInvalid {
			t.Errorf("key length %d: expected ErrKeyLengthInvalid, got %v", n, err)
		}
	}
}

func TestNonceUniquenessAcrossCalls(t *testing.T) {
	key := randKey(t, 16)
	enc, _ := NewEncryptor(GCMMode, 16, true)
	plaintext := []byte("same plaintext every time")

	first, err := enc.Encrypt(plaintext, key, nil)
	require.NoError(t, err)
	second, err := enc.Encrypt(plaintext, key, nil)
	require.NoError(t, err)

	require.False(t, bytes.Equal(first, second), "two encryptions of identical plaintext must not collide")
}

func TestSignedFooterEncryptVerify(t *testing.T) {
	key := randKey(t, 16)
	enc, err := NewEncryptor(GCMMode, 16, true)
	require.NoError(t, err)
	dec, err := NewDecryptor(GCMMode, 16, true)
	require.NoError(t, err)

	nonce := randKey(t, NonceLength)
	footer := []byte("plaintext footer bytes")
	aad := []byte("footer-aad")

	frame, err := enc.SignedFooterEncrypt(footer, key, aad, nonce)
	require.NoError(t, err)

	// The on-disk trailer is nonce(12) || tag(16); the ciphertext body is
	// not stored.
	trailer := append([]byte{}, frame[LengthPrefixSize:LengthPrefixSize+NonceLength]...)
	trailer = append(trailer, frame[len(frame)-GCMTagLength:]...)
	require.NoError(t, dec.VerifySignedFooter(footer, key, aad, trailer))

	corrupted := append([]byte{}, footer...)
	corrupted[0] ^= 1
	require.Error(t, dec.VerifySignedFooter(corrupted, key, aad, trailer))
}
