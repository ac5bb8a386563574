package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/imgmeta/pkg/common"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
scan:
  concurrency: 8
  journal: /tmp/scan.json
server:
  addr: ":9000"
`), 0o644))

	t.Setenv("IMGMETA_SERVER_IMAGES", "/srv/photos")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 4, "")
	flags.String("addr", ":8080", "")
	require.NoError(t, flags.Parse([]string{"--concurrency", "2"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Scan.Concurrency)
	assert.Equal(t, "/tmp/scan.json", cfg.Scan.JournalPath)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/srv/photos", cfg.Server.ImagesDir)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)

	var cfgErr *common.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())

	cfg.Scan.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = New()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}
