package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the config variables for the test and restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DB_PATH", "ADDR", "LOG_PATH", "LOG_LEVEL", "LOG_FORMAT", "SEED", "SHUTDOWN_TIMEOUT"} {
		key := EnvPrefix + "_" + name
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "nfsee.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "", cfg.LogPath)
	assert.True(t, cfg.Seed)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NFSEE_ADDR", "127.0.0.1:9000")
	t.Setenv("NFSEE_SEED", "false")
	t.Setenv("NFSEE_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.False(t, cfg.Seed)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NFSEE_ADDR", ":7000")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NFSEE_DB_PATH=/tmp/boxes.sqlite3\nNFSEE_ADDR=:1234\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/boxes.sqlite3", cfg.DBPath)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("NFSEE_SHUTDOWN_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestFlagsOverride(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	cfg.BindServeFlags(fs)
	require.NoError(t, fs.Parse([]string{"-d", "other.sqlite3", "--addr", ":9999", "--seed=false", "--log-level", "debug"}))

	assert.Equal(t, "other.sqlite3", cfg.DBPath)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.False(t, cfg.Seed)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestValidate(t *testing.T) {
	base := Config{DBPath: "x.sqlite3", LogLevel: "info", LogFormat: "text", ShutdownTimeout: time.Second}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"json format", func(c *Config) { c.LogFormat = "JSON" }, false},
		{"empty db", func(c *Config) { c.DBPath = "" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"zero timeout", func(c *Config) { c.ShutdownTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
