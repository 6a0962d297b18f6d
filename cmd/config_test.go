package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(orig)
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := loadConfig()
	assert.Equal(t, "codeprism.cpg", cfg.Snapshot)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 256, cfg.TreeCacheSize)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(configFileName, []byte(`
snapshot: custom.cpg
workers: 8
metrics_addr: ":9090"
`), 0644))

	cfg := loadConfig()
	assert.Equal(t, "custom.cpg", cfg.Snapshot)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 256, cfg.TreeCacheSize, "unset fields keep defaults")
}
