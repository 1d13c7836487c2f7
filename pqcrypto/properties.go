package pqcrypto

import (
	"crypto/rand"
	"io"

	"github.com/go-playground/validator/v10"
	"golang.org/x/xerrors"
)

// Algorithm identifies the file-level module cipher.
type Algorithm int

const (
	// AlgorithmAesGcmV1 authenticates and encrypts every module with GCM.
	AlgorithmAesGcmV1 Algorithm = iota
	// AlgorithmAesGcmCtrV1 encrypts page bodies with unauthenticated CTR;
	// every metadata module still uses GCM.
	AlgorithmAesGcmCtrV1
)

var validate = validator.New()

func init() {
	if err := validate.RegisterValidation("keylen", func(fl validator.FieldLevel) bool {
		return validKeyLength(fl.Field().Len())
	}); err != nil {
		panic(err)
	}
}

func validKeyLength(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// EncryptionAlgorithm is the (cipher, aad) descriptor stored with an
// encrypted file.
type EncryptionAlgorithm struct {
	Cipher          Algorithm
	AadPrefix       []byte
	AadFileUnique   []byte
	SupplyAadPrefix bool
}

// NewAadFileUnique generates the 8 random bytes required at write time.
func NewAadFileUnique() ([]byte, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, xerrors.Errorf("pqcrypto: generating aad_file_unique: %w", err)
	}
	return buf, nil
}

// FileAAD composes the file AAD root from this descriptor's prefix and
// unique bytes.
func (a EncryptionAlgorithm) FileAAD() []byte {
	out := make([]byte, 0, len(a.AadPrefix)+len(a.AadFileUnique))
	out = append(out, a.AadPrefix...)
	out = append(out, a.AadFileUnique...)
	return out
}

// ColumnEncryptionProperties configures encryption for a single column.
// A column with Encrypted=true and no Key is "encrypted-with-footer-key".
type ColumnEncryptionProperties struct {
	Path        ColumnPath
	Encrypted   bool
	Key         []byte `validate:"omitempty,keylen"`
	KeyMetadata []byte
}

// ColumnEncryptionPropertiesBuilder builds a ColumnEncryptionProperties,
// rejecting invariant violations at Build time rather than at use time.
type ColumnEncryptionPropertiesBuilder struct {
	path        ColumnPath
	encrypted   bool
	key         []byte
	keyMetadata []byte
	keyID       []byte
	err         error
}

// NewColumnEncryptionPropertiesBuilder starts a builder for path, which is
// encrypted by default (matching the upstream column_properties default).
func NewColumnEncryptionPropertiesBuilder(path ColumnPath) *ColumnEncryptionPropertiesBuilder {
	return &ColumnEncryptionPropertiesBuilder{path: path, encrypted: true}
}

// Key sets an explicit per-column key. Empty is treated as unset.
func (b *ColumnEncryptionPropertiesBuilder) Key(key []byte) *ColumnEncryptionPropertiesBuilder {
	if len(key) > 0 {
		b.key = key
	}
	return b
}

// KeyMetadata sets opaque hint bytes written to the file for this column.
// Mutually exclusive with KeyID.
func (b *ColumnEncryptionPropertiesBuilder) KeyMetadata(metadata []byte) *ColumnEncryptionPropertiesBuilder {
	if len(metadata) > 0 {
		b.keyMetadata = metadata
	}
	return b
}

// KeyID sets a UTF-8 identifier that is stored as the column's key metadata.
// Mutually exclusive with KeyMetadata.
func (b *ColumnEncryptionPropertiesBuilder) KeyID(id string) *ColumnEncryptionPropertiesBuilder {
	if id != "" {
		b.keyID = []byte(id)
	}
	return b
}

// Build validates and returns the finished properties.
func (b *ColumnEncryptionPropertiesBuilder) Build() (ColumnEncryptionProperties, error) {
	if b.err != nil {
		return ColumnEncryptionProperties{}, b.err
	}
	if len(b.keyMetadata) > 0 && len(b.keyID) > 0 {
		return ColumnEncryptionProperties{}, xerrors.Errorf("pqcrypto: column %q: key_metadata and key_id are mutually exclusive: %w", b.path, ErrConfigError)
	}
	if len(b.key) > 0 && !validKeyLength(len(b.key)) {
		return ColumnEncryptionProperties{}, ErrKeyLengthInvalid
	}
	metadata := b.keyMetadata
	if len(metadata) == 0 {
		metadata = b.keyID
	}
	return ColumnEncryptionProperties{
		Path:        b.path,
		Encrypted:   true,
		Key:         b.key,
		KeyMetadata: metadata,
	}, nil
}

// ColumnDecryptionProperties configures decryption for a single column. An
// explicit Key overrides any key metadata stored in the file for that path.
type ColumnDecryptionProperties struct {
	Path ColumnPath
	Key  []byte
}

// ColumnDecryptionPropertiesBuilder builds ColumnDecryptionProperties.
type ColumnDecryptionPropertiesBuilder struct {
	path ColumnPath
	key  []byte
}

// NewColumnDecryptionPropertiesBuilder starts a builder for path.
func NewColumnDecryptionPropertiesBuilder(path ColumnPath) *ColumnDecryptionPropertiesBuilder {
	return &ColumnDecryptionPropertiesBuilder{path: path}
}

// Key sets the explicit decryption key for this column.
func (b *ColumnDecryptionPropertiesBuilder) Key(key []byte) *ColumnDecryptionPropertiesBuilder {
	if len(key) > 0 {
		b.key = key
	}
	return b
}

// Build validates and returns the finished properties.
func (b *ColumnDecryptionPropertiesBuilder) Build() (ColumnDecryptionProperties, error) {
	if len(b.key) > 0 && !validKeyLength(len(b.key)) {
		return ColumnDecryptionProperties{}, ErrKeyLengthInvalid
	}
	return ColumnDecryptionProperties{Path: b.path, Key: b.key}, nil
}

// AadPrefixVerifier is an extra policy hook invoked with the AAD prefix
// that will actually be used for a file, after reconciliation between the
// stored and caller-supplied prefixes.
type AadPrefixVerifier interface {
	Verify(aadPrefix []byte) error
}

// FileEncryptionProperties is the frozen, read-only-after-build
// configuration for encrypting one file.
type FileEncryptionProperties struct {
	Cipher                Algorithm
	FooterKey             []byte
	FooterKeyMetadata     []byte
	EncryptedFooter       bool
	AadPrefix             []byte
	StoreAadPrefixInFile  bool
	Columns               map[ColumnPath]ColumnEncryptionProperties `validate:"dive"`
}

// ColumnProperties returns the configured properties for path and whether
// any were configured.
func (p FileEncryptionProperties) ColumnProperties(path ColumnPath) (ColumnEncryptionProperties, bool) {
	props, ok := p.Columns[path]
	return props, ok
}

// FileEncryptionPropertiesBuilder builds FileEncryptionProperties.
type FileEncryptionPropertiesBuilder struct {
	cipher                 Algorithm
	footerKey              []byte
	footerKeyMetadata      []byte
	footerKeyID            []byte
	encryptedFooter        bool
	aadPrefix              []byte
	storeAadPrefixInFile   bool
	disableAadPrefixStore  bool
	columns                map[ColumnPath]ColumnEncryptionProperties
	columnsSet             bool
}

// NewFileEncryptionPropertiesBuilder starts a builder with the given footer
// key. EncryptedFooter defaults to true, matching the upstream default.
func NewFileEncryptionPropertiesBuilder(footerKey []byte) *FileEncryptionPropertiesBuilder {
	return &FileEncryptionPropertiesBuilder{
		footerKey:       footerKey,
		encryptedFooter: true,
	}
}

// WithAlgorithm sets the file-level cipher.
func (b *FileEncryptionPropertiesBuilder) WithAlgorithm(alg Algorithm) *FileEncryptionPropertiesBuilder {
	b.cipher = alg
	return b
}

// WithFooterKeyMetadata sets hint bytes for the footer key, mutually
// exclusive with WithFooterKeyID.
func (b *FileEncryptionPropertiesBuilder) WithFooterKeyMetadata(metadata []byte) *FileEncryptionPropertiesBuilder {
	if len(metadata) > 0 {
		b.footerKeyMetadata = metadata
	}
	return b
}

// WithFooterKeyID sets a UTF-8 identifier stored as the footer key's
// metadata, mutually exclusive with WithFooterKeyMetadata.
func (b *FileEncryptionPropertiesBuilder) WithFooterKeyID(id string) *FileEncryptionPropertiesBuilder {
	if id != "" {
		b.footerKeyID = []byte(id)
	}
	return b
}

// WithPlaintextFooter switches to plaintext-footer mode.
func (b *FileEncryptionPropertiesBuilder) WithPlaintextFooter() *FileEncryptionPropertiesBuilder {
	b.encryptedFooter = false
	return b
}

// WithAadPrefix sets the extra identity bytes mixed into the file AAD.
// Implicitly enables StoreAadPrefixInFile unless later disabled.
func (b *FileEncryptionPropertiesBuilder) WithAadPrefix(prefix []byte) *FileEncryptionPropertiesBuilder {
	b.aadPrefix = prefix
	b.storeAadPrefixInFile = len(prefix) > 0
	return b
}

// DisableStoreAadPrefixInFile forces the reader to re-supply the AAD
// prefix. Requires a prefix to already be set; otherwise Build fails with
// ErrConfigError.
func (b *FileEncryptionPropertiesBuilder) DisableStoreAadPrefixInFile() *FileEncryptionPropertiesBuilder {
	b.disableAadPrefixStore = true
	return b
}

// WithColumnProperties registers per-column encryption properties. May be
// called only once per builder.
func (b *FileEncryptionPropertiesBuilder) WithColumnProperties(columns map[ColumnPath]ColumnEncryptionProperties) *FileEncryptionPropertiesBuilder {
	if b.columnsSet {
		return b
	}
	b.columns = columns
	b.columnsSet = true
	return b
}

// Build validates and returns the finished properties.
func (b *FileEncryptionPropertiesBuilder) Build() (*FileEncryptionProperties, error) {
	if len(b.footerKeyMetadata) > 0 && len(b.footerKeyID) > 0 {
		return nil, xerrors.Errorf("pqcrypto: footer_key_metadata and footer_key_id are mutually exclusive: %w", ErrConfigError)
	}
	if !validKeyLength(len(b.footerKey)) {
		return nil, ErrKeyLengthInvalid
	}
	if b.disableAadPrefixStore && len(b.aadPrefix) == 0 {
		return nil, xerrors.Errorf("pqcrypto: disable_store_aad_prefix_storage requires aad_prefix to be set: %w", ErrConfigError)
	}

	storeAadPrefixInFile := b.storeAadPrefixInFile
	if b.disableAadPrefixStore {
		storeAadPrefixInFile = false
	}
	if len(b.aadPrefix) == 0 {
		storeAadPrefixInFile = false
	}

	footerKeyMetadata := b.footerKeyMetadata
	if len(footerKeyMetadata) == 0 {
		footerKeyMetadata = b.footerKeyID
	}

	columns := b.columns
	if columns == nil {
		columns = map[ColumnPath]ColumnEncryptionProperties{}
	}

	props := &FileEncryptionProperties{
		Cipher:               b.cipher,
		FooterKey:            b.footerKey,
		FooterKeyMetadata:    footerKeyMetadata,
		EncryptedFooter:      b.encryptedFooter,
		AadPrefix:            b.aadPrefix,
		StoreAadPrefixInFile: storeAadPrefixInFile,
		Columns:              columns,
	}
	if err := validate.Struct(props); err != nil {
		return nil, xerrors.Errorf("pqcrypto: %w: %v", ErrConfigError, err)
	}
	return props, nil
}

// KeyRetriever resolves opaque key metadata bytes to raw key bytes. See
// MapKeyRetriever for the common in-memory implementation. Implementations
// must not re-enter the file reader or writer that invoked them.
type KeyRetriever interface {
	Retrieve(keyMetadata []byte) ([]byte, error)
}

// FileDecryptionProperties is the frozen, read-only-after-build
// configuration for decrypting one file.
type FileDecryptionProperties struct {
	FooterKey                     []byte
	KeyRetriever                  KeyRetriever
	CheckPlaintextFooterIntegrity bool
	AadPrefix                     []byte
	AadPrefixVerifier             AadPrefixVerifier
	Columns                       map[ColumnPath]ColumnDecryptionProperties
}

// ColumnKey returns the explicit decryption key configured for path, if
// any. Per §4.3, the caller falls back to the key retriever when absent.
func (p FileDecryptionProperties) ColumnKey(path ColumnPath) []byte {
	if props, ok := p.Columns[path]; ok {
		return props.Key
	}
	return nil
}

// FileDecryptionPropertiesBuilder builds FileDecryptionProperties.
type FileDecryptionPropertiesBuilder struct {
	footerKey         []byte
	keyRetriever      KeyRetriever
	checkIntegrity    bool
	checkIntegritySet bool
	aadPrefix         []byte
	aadPrefixVerifier AadPrefixVerifier
	columns           map[ColumnPath]ColumnDecryptionProperties
}

// NewFileDecryptionPropertiesBuilder starts a builder.
// CheckPlaintextFooterIntegrity defaults to true.
func NewFileDecryptionPropertiesBuilder() *FileDecryptionPropertiesBuilder {
	return &FileDecryptionPropertiesBuilder{checkIntegrity: true}
}

// WithFooterKey sets the explicit footer decryption key.
func (b *FileDecryptionPropertiesBuilder) WithFooterKey(key []byte) *FileDecryptionPropertiesBuilder {
	b.footerKey = key
	return b
}

// WithKeyRetriever sets the callback used to resolve key metadata to keys
// when no explicit key is configured for a path.
func (b *FileDecryptionPropertiesBuilder) WithKeyRetriever(r KeyRetriever) *FileDecryptionPropertiesBuilder {
	b.keyRetriever = r
	return b
}

// DisablePlaintextFooterIntegrityCheck turns off trailer verification for
// plaintext-footer files.
func (b *FileDecryptionPropertiesBuilder) DisablePlaintextFooterIntegrityCheck() *FileDecryptionPropertiesBuilder {
	b.checkIntegrity = false
	b.checkIntegritySet = true
	return b
}

// WithAadPrefix sets the caller-supplied AAD prefix, used when the file
// does not store one (or requires one to be re-supplied).
func (b *FileDecryptionPropertiesBuilder) WithAadPrefix(prefix []byte) *FileDecryptionPropertiesBuilder {
	b.aadPrefix = prefix
	return b
}

// WithAadPrefixVerifier sets an extra policy hook invoked with the
// reconciled AAD prefix.
func (b *FileDecryptionPropertiesBuilder) WithAadPrefixVerifier(v AadPrefixVerifier) *FileDecryptionPropertiesBuilder {
	b.aadPrefixVerifier = v
	return b
}

// WithColumnProperties registers per-column decryption properties.
func (b *FileDecryptionPropertiesBuilder) WithColumnProperties(columns map[ColumnPath]ColumnDecryptionProperties) *FileDecryptionPropertiesBuilder {
	b.columns = columns
	return b
}

// Build validates and returns the finished properties.
func (b *FileDecryptionPropertiesBuilder) Build() (*FileDecryptionProperties, error) {
	if len(b.footerKey) == 0 && b.keyRetriever == nil {
		return nil, xerrors.Errorf("pqcrypto: at least one of footer_key or key_retriever is required: %w", ErrConfigError)
	}
	if len(b.footerKey) > 0 && !validKeyLength(len(b.footerKey)) {
		return nil, ErrKeyLengthInvalid
	}
	columns := b.columns
	if columns == nil {
		columns = map[ColumnPath]ColumnDecryptionProperties{}
	}
	return &FileDecryptionProperties{
		FooterKey:                     b.footerKey,
		KeyRetriever:                  b.keyRetriever,
		CheckPlaintextFooterIntegrity: b.checkIntegrity,
		AadPrefix:                     b.aadPrefix,
		AadPrefixVerifier:             b.aadPrefixVerifier,
		Columns:                       columns,
	}, nil
}
