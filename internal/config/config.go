package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable, e.g. NFSEE_DB_PATH.
const EnvPrefix = "NFSEE"

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the runtime configuration. Values come from the environment
// (optionally loaded from .env files) and may be overridden by flags.
type Config struct {
	DBPath          string        `envconfig:"DB_PATH" default:"nfsee.sqlite3"`
	Addr            string        `envconfig:"ADDR" default:":8080"`
	LogPath         string        `envconfig:"LOG_PATH"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	Seed            bool          `envconfig:"SEED" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads envFiles (".env" when none are given; missing files are
// ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// BindStorageFlags registers the flags every subcommand shares.
func (c *Config) BindStorageFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.DBPath, "db", "d", c.DBPath, "SQLite database path")
	fs.StringVarP(&c.LogPath, "log", "l", c.LogPath, "log file path (stdout/stderr only when empty)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
}

// BindServeFlags registers the flags of the serve subcommand.
func (c *Config) BindServeFlags(fs *pflag.FlagSet) {
	c.BindStorageFlags(fs)
	fs.StringVarP(&c.Addr, "addr", "a", c.Addr, "listen address")
	fs.BoolVar(&c.Seed, "seed", c.Seed, "insert sample data into an empty database")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown timeout")
}

// Validate checks values that cannot be expressed as envconfig tags.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
