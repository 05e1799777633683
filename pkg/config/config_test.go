package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/errclass"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "/boot", cfg.BootRoot)
	assert.Equal(t, "sha256", cfg.Algorithm)
	assert.Equal(t, "OEPF", cfg.Modules.SuspiciousTaints)
	assert.Equal(t, 20, cfg.Attribution.RateLimit)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: blake3\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "blake3", cfg.Algorithm)
	assert.Equal(t, "/boot", cfg.BootRoot)
	assert.Equal(t, "OEPF", cfg.Modules.SuspiciousTaints)
}

func TestLoad_UnknownAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: md5\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrAlgorithmUnknown)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: [unterminated\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Default()
	cfg.Algorithm = "blake3"
	cfg.Services.UnsafePatterns = []string{`telnet.*`}
	cfg.Modules.TrustedSigners = []string{"Build time autogenerated kernel key"}
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.HashWorkers = -1
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Attribution.RateLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Modules.SuspiciousTaints = ""
	assert.Error(t, cfg.Validate())
}

func TestEffectiveWorkers(t *testing.T) {
	cfg := config.Default()
	assert.Greater(t, cfg.EffectiveWorkers(), 0)

	cfg.HashWorkers = 3
	assert.Equal(t, 3, cfg.EffectiveWorkers())
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv("BOOTAUDIT_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", config.DefaultPath())
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("BOOTAUDIT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgconf")
	assert.Equal(t, filepath.Join("/tmp/xdgconf", "bootaudit", "config.yaml"), config.DefaultPath())
}
