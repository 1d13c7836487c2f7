package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

func TestWriteScenarioOverrideReplacesKeysAndPrefix(t *testing.T) {
	scenario := writeScenarios()[6]

	ov := scenarioOverride{
		FooterKey:  "abcdefghijklmnop",
		ColumnKeys: map[string]string{"double_field": "1111111111111111"},
		AadPrefix:  "custom-prefix",
	}
	props, algo, err := scenario.Build(ov)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdefghijklmnop"), props.FooterKey)
	require.Equal(t, []byte("custom-prefix"), algo.AadPrefix)

	col, ok := props.ColumnProperties(pqcrypto.NewColumnPath("double_field"))
	require.True(t, ok)
	require.Equal(t, []byte("1111111111111111"), col.Key)

	// float_field keeps its canonical key since no override was supplied.
	col2, ok := props.ColumnProperties(pqcrypto.NewColumnPath("float_field"))
	require.True(t, ok)
	require.Equal(t, []byte(columnEncryptionKey2), col2.Key)
}

func TestWriteScenarioOverrideAlgorithm(t *testing.T) {
	scenario := writeScenarios()[1]

	props, algo, err := scenario.Build(scenarioOverride{Algorithm: "AES_GCM_CTR_V1"})
	require.NoError(t, err)
	require.Equal(t, pqcrypto.AlgorithmAesGcmCtrV1, props.Cipher)
	require.Equal(t, pqcrypto.AlgorithmAesGcmCtrV1, algo.Cipher)
}

func TestWriteScenarioNoOverrideUsesCanonicalDefaults(t *testing.T) {
	scenario := writeScenarios()[1]

	props, algo, err := scenario.Build(scenarioOverride{})
	require.NoError(t, err)
	require.Equal(t, []byte(footerEncryptionKey), props.FooterKey)
	require.Empty(t, algo.AadPrefix)
}

func TestReadScenarioKeyRetrieverOverride(t *testing.T) {
	scenario := readScenarios()[2]

	retriever := scenario.KeyRetriever(scenarioOverride{
		ColumnKeys: map[string]string{"double_field": "2222222222222222"},
	})
	key, err := retriever.Retrieve([]byte("kc1"))
	require.NoError(t, err)
	require.Equal(t, []byte("2222222222222222"), key)
}

func TestParseAlgorithmRejectsUnknownName(t *testing.T) {
	_, err := parseAlgorithm("NOT_A_CIPHER")
	require.Error(t, err)
}
