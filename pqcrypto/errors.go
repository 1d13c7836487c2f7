package pqcrypto

import "errors"

var (
	// ErrCorruptFooter reports a footer that is not a recognizable PAR1 or
	// PARE framed file: truncated trailer, bad magic bytes, or a stored
	// metadata length inconsistent with the file size.
	ErrCorruptFooter = errors.New("pqcrypto: corrupt or unrecognized footer")

	// ErrNoDecryptionProperties reports an attempt to read an encrypted file
	// without any FileDecryptionProperties configured.
	ErrNoDecryptionProperties = errors.New("pqcrypto: file is encrypted but no decryption properties were supplied")

	// ErrKeyUnavailable reports that a column's key metadata could not be
	// resolved to a key: no explicit key configured and no key retriever
	// produced one (or none was configured).
	ErrKeyUnavailable = errors.New("pqcrypto: key unavailable for column")

	// ErrKeyLengthInvalid reports a configured key whose length is not one
	// of 16, 24, or 32 bytes.
	ErrKeyLengthInvalid = errors.New("pqcrypto: key length must be 16, 24, or 32 bytes")

	// ErrKeyLengthMismatch reports a key whose length does not match the
	// algorithm it is being used with.
	ErrKeyLengthMismatch = errors.New("pqcrypto: key length mismatch")

	// ErrAeadFailure reports GCM authentication failure or malformed
	// ciphertext framing on any module.
	ErrAeadFailure = errors.New("pqcrypto: authentication or framing failure")

	// ErrAadPrefixMismatch reports that the AAD prefix supplied by the
	// caller does not match the one stored in the file.
	ErrAadPrefixMismatch = errors.New("pqcrypto: supplied AAD prefix does not match the stored prefix")

	// ErrAadPrefixMissing reports a file that requires the caller to supply
	// an AAD prefix (SupplyAadPrefix) but none was configured.
	ErrAadPrefixMissing = errors.New("pqcrypto: file requires caller-supplied AAD prefix, none configured")

	// ErrFooterSignatureInvalid reports that a plaintext footer's integrity
	// trailer failed verification.
	ErrFooterSignatureInvalid = errors.New("pqcrypto: plaintext footer signature verification failed")

	// ErrConfigError reports an invalid combination of encryption or
	// decryption properties, caught at build time.
	ErrConfigError = errors.New("pqcrypto: invalid configuration")

	// ErrMetadataParse reports a crypto metadata structure that failed to
	// parse.
	ErrMetadataParse = errors.New("pqcrypto: failed to parse crypto metadata")
)
