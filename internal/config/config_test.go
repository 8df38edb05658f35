package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkeep/partyd/internal/kdf"
	"github.com/shardkeep/partyd/internal/mnemonic"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.SafePrimes)
	assert.Equal(t, mnemonic.Existing, cfg.MnemonicCmd)
	assert.Equal(t, kdf.Prompt, cfg.PasswordMethod)
}

func TestParseUnsafeAndNoPassword(t *testing.T) {
	cfg, err := Parse([]string{"--unsafe", "--no-password", "--port", "1234"})
	require.NoError(t, err)
	assert.False(t, cfg.SafePrimes)
	assert.Equal(t, kdf.NoPassword, cfg.PasswordMethod)
	assert.Equal(t, 1234, cfg.Port)
}

func TestParseMnemonicCmd(t *testing.T) {
	cfg, err := Parse([]string{"--mnemonic", "create"})
	require.NoError(t, err)
	assert.Equal(t, mnemonic.Create, cfg.MnemonicCmd)
}

func TestParseRejectsUnknownMnemonicCmd(t *testing.T) {
	_, err := Parse([]string{"--mnemonic", "bogus"})
	assert.Error(t, err)
}

func TestParseDirectoryOverridesEnv(t *testing.T) {
	t.Setenv(TofndHomeEnvVar, "/tmp/env-dir")
	cfg, err := Parse([]string{"--directory", "/tmp/flag-dir"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag-dir", cfg.Directory)
}

func TestParseDirectoryFallsBackToEnv(t *testing.T) {
	t.Setenv(TofndHomeEnvVar, "/tmp/env-dir")
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-dir", cfg.Directory)
}
