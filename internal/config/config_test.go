package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config is filled with defaults.
	cfg := new(Config)

	err := Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)

	// Bad listen address.
	cfg = &Config{
		ListenAddress: "bad:address",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Explicit values survive validation.
	cfg = &Config{
		ListenAddress: "127.0.0.1:0",
		DatabasePath:  "alarms.db",
		PollInterval:  time.Second,
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.PollInterval)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ListenAddress: "127.0.0.1:8099",
		DatabasePath:  filepath.Join(dir, "alarms.db"),
		PollInterval:  30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, cfg.DatabasePath, loaded.DatabasePath)
	require.Equal(t, cfg.PollInterval, loaded.PollInterval)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFileReturnsDefaults verifies a missing settings file is not fatal.
func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	loaded, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, loaded.ListenAddress)
}
