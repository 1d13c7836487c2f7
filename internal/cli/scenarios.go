package cli

import (
	"fmt"

	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

const (
	footerEncryptionKey  = "0123456789012345"
	columnEncryptionKey1 = "1234567890123450"
	columnEncryptionKey2 = "1234567890123451"
	fileNamePrefix       = "tester"
)

// scenarioOverride carries the per-scenario overrides a YAML config file
// (-c/--config) may supply: replacement keys, an AAD prefix, and/or the
// file-level cipher, each overriding the corresponding canonical interop
// default for that scenario number only. A zero-value scenarioOverride
// changes nothing.
type scenarioOverride struct {
	FooterKey  string            `yaml:"footer_key"`
	ColumnKeys map[string]string `yaml:"column_keys"`
	AadPrefix  string            `yaml:"aad_prefix"`
	Algorithm  string            `yaml:"algorithm"`
}

func parseAlgorithm(s string) (pqcrypto.Algorithm, error) {
	switch s {
	case "AES_GCM_V1":
		return pqcrypto.AlgorithmAesGcmV1, nil
	case "AES_GCM_CTR_V1":
		return pqcrypto.AlgorithmAesGcmCtrV1, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q (want AES_GCM_V1 or AES_GCM_CTR_V1)", s)
	}
}

func resolveCipher(ov scenarioOverride, def pqcrypto.Algorithm) (pqcrypto.Algorithm, error) {
	if ov.Algorithm == "" {
		return def, nil
	}
	return parseAlgorithm(ov.Algorithm)
}

func resolveAadPrefix(ov scenarioOverride, def []byte) []byte {
	if ov.AadPrefix != "" {
		return []byte(ov.AadPrefix)
	}
	return def
}

func resolveFooterKey(ov scenarioOverride) string {
	if ov.FooterKey != "" {
		return ov.FooterKey
	}
	return footerEncryptionKey
}

func resolveColumnKey(ov scenarioOverride, column, def string) string {
	if k, ok := ov.ColumnKeys[column]; ok && k != "" {
		return k
	}
	return def
}

// writeScenario describes one canonical write-side interop scenario: two
// encrypted columns (double_field, float_field) and the footer, under a
// particular configuration variation. Build takes the caller-supplied
// override for this scenario number, applying it on top of the canonical
// interop defaults.
type writeScenario struct {
	Number  int
	Build   func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error)
	Signing bool
}

func encryptionColumns(ov scenarioOverride) (map[pqcrypto.ColumnPath]pqcrypto.ColumnEncryptionProperties, error) {
	col1, err := pqcrypto.NewColumnEncryptionPropertiesBuilder(pqcrypto.NewColumnPath("double_field")).
		Key([]byte(resolveColumnKey(ov, "double_field", columnEncryptionKey1))).KeyID("kc1").Build()
	if err != nil {
		return nil, err
	}
	col2, err := pqcrypto.NewColumnEncryptionPropertiesBuilder(pqcrypto.NewColumnPath("float_field")).
		Key([]byte(resolveColumnKey(ov, "float_field", columnEncryptionKey2))).KeyID("kc2").Build()
	if err != nil {
		return nil, err
	}
	return map[pqcrypto.ColumnPath]pqcrypto.ColumnEncryptionProperties{
		pqcrypto.NewColumnPath("double_field"): col1,
		pqcrypto.NewColumnPath("float_field"):  col2,
	}, nil
}

func newAlgorithm(cipher pqcrypto.Algorithm, aadPrefix []byte) (pqcrypto.EncryptionAlgorithm, error) {
	unique, err := pqcrypto.NewAadFileUnique()
	if err != nil {
		return pqcrypto.EncryptionAlgorithm{}, err
	}
	return pqcrypto.EncryptionAlgorithm{Cipher: cipher, AadFileUnique: unique, AadPrefix: aadPrefix}, nil
}

// writeScenarios returns the canonical write scenarios 1, 3, 5, 6, 8, and
// 10, keyed by scenario number.
func writeScenarios() map[int]writeScenario {
	scenarios := map[int]writeScenario{}

	scenarios[1] = writeScenario{Number: 1, Build: func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error) {
		cols, err := encryptionColumns(ov)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		cipher, err := resolveCipher(ov, pqcrypto.AlgorithmAesGcmV1)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		prefix := resolveAadPrefix(ov, nil)
		algo, err := newAlgorithm(cipher, prefix)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		builder := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(resolveFooterKey(ov))).
			WithFooterKeyID("kf").
			WithColumnProperties(cols).
			WithAlgorithm(cipher)
		if len(prefix) > 0 {
			builder = builder.WithAadPrefix(prefix)
		}
		props, err := builder.Build()
		return props, algo, err
	}}

	// Test 3 reuses test 1's write configuration; the scenario's point is
	// in how it is later read back without the float_field key.
	scenario3 := scenarios[1]
	scenario3.Number = 3
	scenarios[3] = scenario3

	scenarios[5] = writeScenario{Number: 5, Signing: true, Build: func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error) {
		cols, err := encryptionColumns(ov)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		cipher, err := resolveCipher(ov, pqcrypto.AlgorithmAesGcmV1)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		prefix := resolveAadPrefix(ov, nil)
		algo, err := newAlgorithm(cipher, prefix)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		builder := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(resolveFooterKey(ov))).
			WithFooterKeyID("kf").
			WithColumnProperties(cols).
			WithAlgorithm(cipher).
			WithPlaintextFooter()
		if len(prefix) > 0 {
			builder = builder.WithAadPrefix(prefix)
		}
		props, err := builder.Build()
		return props, algo, err
	}}

	scenarios[6] = writeScenario{Number: 6, Build: func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error) {
		cols, err := encryptionColumns(ov)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		cipher, err := resolveCipher(ov, pqcrypto.AlgorithmAesGcmV1)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		prefix := resolveAadPrefix(ov, []byte(fileNamePrefix))
		algo, err := newAlgorithm(cipher, prefix)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		props, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(resolveFooterKey(ov))).
			WithFooterKeyID("kf").
			WithColumnProperties(cols).
			WithAlgorithm(cipher).
			WithAadPrefix(prefix).
			Build()
		return props, algo, err
	}}

	scenarios[8] = writeScenario{Number: 8, Build: func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error) {
		cols, err := encryptionColumns(ov)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		cipher, err := resolveCipher(ov, pqcrypto.AlgorithmAesGcmV1)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		prefix := resolveAadPrefix(ov, []byte(fileNamePrefix))
		algo, err := newAlgorithm(cipher, prefix)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		props, err := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(resolveFooterKey(ov))).
			WithFooterKeyID("kf").
			WithColumnProperties(cols).
			WithAlgorithm(cipher).
			WithAadPrefix(prefix).
			DisableStoreAadPrefixInFile().
			Build()
		return props, algo, err
	}}

	scenarios[10] = writeScenario{Number: 10, Build: func(ov scenarioOverride) (*pqcrypto.FileEncryptionProperties, pqcrypto.EncryptionAlgorithm, error) {
		cols, err := encryptionColumns(ov)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		cipher, err := resolveCipher(ov, pqcrypto.AlgorithmAesGcmCtrV1)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		prefix := resolveAadPrefix(ov, nil)
		algo, err := newAlgorithm(cipher, prefix)
		if err != nil {
			return nil, pqcrypto.EncryptionAlgorithm{}, err
		}
		builder := pqcrypto.NewFileEncryptionPropertiesBuilder([]byte(resolveFooterKey(ov))).
			WithFooterKeyID("kf").
			WithColumnProperties(cols).
			WithAlgorithm(cipher)
		if len(prefix) > 0 {
			builder = builder.WithAadPrefix(prefix)
		}
		props, err := builder.Build()
		return props, algo, err
	}}

	return scenarios
}

// readScenario describes one canonical read-side interop scenario: which
// previously written file it reads and with what decryption properties.
// KeyRetriever and AadPrefix are resolved against the caller-supplied
// override for this scenario number.
type readScenario struct {
	Number       int
	SourceWrite  int
	AadPrefix    []byte
	KeyRetriever func(ov scenarioOverride) pqcrypto.KeyRetriever
}

func keyMap(ov scenarioOverride, includeKc1, includeKc2 bool) map[string][]byte {
	m := map[string][]byte{"kf": []byte(resolveFooterKey(ov))}
	if includeKc1 {
		m["kc1"] = []byte(resolveColumnKey(ov, "double_field", columnEncryptionKey1))
	}
	if includeKc2 {
		m["kc2"] = []byte(resolveColumnKey(ov, "float_field", columnEncryptionKey2))
	}
	return m
}

// readScenarios returns the canonical read scenarios 2, 4, and 7, each
// paired with the write scenario whose output file it reads.
func readScenarios() map[int]readScenario {
	fullRetriever := func(ov scenarioOverride) pqcrypto.KeyRetriever {
		return pqcrypto.NewMapKeyRetriever(keyMap(ov, true, true))
	}
	hiddenColumnRetriever := func(ov scenarioOverride) pqcrypto.KeyRetriever {
		return pqcrypto.NewMapKeyRetriever(keyMap(ov, true, false))
	}

	return map[int]readScenario{
		2: {Number: 2, SourceWrite: 1, KeyRetriever: fullRetriever},
		4: {Number: 4, SourceWrite: 3, KeyRetriever: hiddenColumnRetriever},
		7: {Number: 7, SourceWrite: 6, KeyRetriever: fullRetriever},
	}
}

func testFileName(scenarioNumber int) string {
	return fmt.Sprintf("%s%d.parquet.encrypted", fileNamePrefix, scenarioNumber)
}
