package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	viper.Reset()

	require.NoError(t, os.Chdir(dir))
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "", cfg.Network.ListenAddr)
	require.Equal(t, uint64(0), cfg.ProofOfWork.NonceTrialsPerByte)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("network:\n  listen_addr: \":9000\"\n  current_version: 3\nproof_of_work:\n  nonce_trials_per_byte: 2000\n  extra_bytes: 500\nstorage:\n  data_dir: /tmp/bmd\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmd.yaml"), data, 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	viper.Reset()

	require.NoError(t, os.Chdir(dir))
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Network.ListenAddr)
	require.Equal(t, uint32(3), cfg.Network.CurrentVersion)
	require.Equal(t, uint64(2000), cfg.ProofOfWork.NonceTrialsPerByte)
	require.Equal(t, uint64(500), cfg.ProofOfWork.ExtraBytes)
	require.Equal(t, "/tmp/bmd", cfg.Storage.DataDir)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("logging:\n  level: info\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmd.yaml"), data, 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	viper.Reset()

	require.NoError(t, os.Setenv("BMD_LOGGING_LEVEL", "warn"))
	defer os.Unsetenv("BMD_LOGGING_LEVEL")

	require.NoError(t, os.Chdir(dir))
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logging.Level)
}
