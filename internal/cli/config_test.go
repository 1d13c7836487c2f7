package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRunConfigParsesPerScenarioOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	contents := `
scenarios: [1, 6]
log_level: debug
overrides:
  1:
    footer_key: "abcdefghijklmnop"
    column_keys:
      double_field: "1111111111111111"
  6:
    aad_prefix: "custom-prefix"
    algorithm: "AES_GCM_CTR_V1"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := loadRunConfig(path)
	require.NoError(t, err)
	require.Equal(t, []int{1, 6}, cfg.Scenarios)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "abcdefghijklmnop", cfg.Overrides[1].FooterKey)
	require.Equal(t, "1111111111111111", cfg.Overrides[1].ColumnKeys["double_field"])
	require.Equal(t, "custom-prefix", cfg.Overrides[6].AadPrefix)
	require.Equal(t, "AES_GCM_CTR_V1", cfg.Overrides[6].Algorithm)
}

func TestLoadRunConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := loadRunConfig("")
	require.NoError(t, err)
	require.Empty(t, cfg.Scenarios)
	require.Empty(t, cfg.Overrides)
}
