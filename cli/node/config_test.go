package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Default(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(dir), cfg)
	require.Equal(t, filepath.Join(dir, "ledger.db"), cfg.Path(cfg.DBFile))
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()

	content := "log_level: debug\ndb_file: /tmp/polls.db\nprometheus_addr: 0.0.0.0:2112\n"

	err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0600)
	require.NoError(t, err)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "/tmp/polls.db", cfg.Path(cfg.DBFile))
	require.Equal(t, "private.key", cfg.KeyFile)
	require.Equal(t, "0.0.0.0:2112", cfg.PrometheusAddr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte("log_level: [a"), 0600)
	require.NoError(t, err)

	_, err = LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config: ")

	err = os.Mkdir(filepath.Join(dir, "folder"), 0700)
	require.NoError(t, err)

	err = os.Mkdir(filepath.Join(dir, "folder", ConfigFile), 0700)
	require.NoError(t, err)

	_, err = LoadConfig(filepath.Join(dir, "folder"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config: ")
}

func TestDefaultConfigDir(t *testing.T) {
	require.Equal(t, ".pollbox", filepath.Base(DefaultConfigDir()))
}
