package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MaxSizeBytes parses MaxSize ("10MB", "512KiB"). Empty means zero.
func (l LoggingConfig) MaxSizeBytes() (int64, error) {
	if l.MaxSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(l.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid logging.max_size %q: %w", l.MaxSize, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid logging.max_size %q: too large", l.MaxSize)
	}
	return int64(n), nil
}

// Config represents the application configuration.
type Config struct {
	Output     string        `mapstructure:"output"`
	Key        string        `mapstructure:"key"`
	Order      string        `mapstructure:"order"`
	SizeMode   string        `mapstructure:"size_mode"`
	SampleSize int           `mapstructure:"sample_size"`
	Exclude    []string      `mapstructure:"exclude"`
	Progress   bool          `mapstructure:"progress"`
	Verbose    bool          `mapstructure:"verbose"`
	Logging    LoggingConfig `mapstructure:"logging"`
}

// NewViper returns a viper instance with hdcompare's defaults, search paths
// and environment binding. Callers may bind flags to it before Load.
//
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/hdcompare/config.yaml
//   - $HOME/.config/hdcompare/config.yaml
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", appName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", DefaultOutput)
	v.SetDefault("key", DefaultKey)
	v.SetDefault("order", DefaultOrder)
	v.SetDefault("size_mode", DefaultSizeMode)
	v.SetDefault("sample_size", DefaultSampleSize)
	v.SetDefault("exclude", []string{})
	v.SetDefault("progress", false)
	v.SetDefault("verbose", false)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // empty disables the log file
	v.SetDefault("logging.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.max_age_days", DefaultLogMaxAgeDays)

	return v
}

// Load reads the config file (a missing file is fine) and unmarshals the
// merged settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Logging.Path != "" {
		p, err := ExpandPath(cfg.Logging.Path)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Path = p
	}

	if _, err := cfg.Logging.MaxSizeBytes(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName)
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultLogPath returns a suggested log file path under $XDG_STATE_HOME.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a default config file to path unless one exists.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# hdcompare configuration

# Report format: text, plain, pretty, json, json-canonical, yaml
output: %s

# Digest column used to match entries: md5 or sha256
key: %s

# Visit order for samples and per-entry lines: file or hash
order: %s

# Size comparison: string (exact text) or numeric
size_mode: %s

# Number of leading entries printed as samples
sample_size: %d

# Filename glob patterns to leave out of both manifests
exclude: []

# Show a progress bar on stderr while reading manifests
progress: false

logging:
  # Log level for the log file: debug, info, warn, error
  level: %s
  # Log file path; empty disables file logging (suggested: %s)
  path: ""
  # Rotate the log file once it reaches this size
  max_size: %s
  # Rotated files to keep (0 keeps all)
  max_backups: %d
  # Delete rotated files older than this many days (0 disables)
  max_age_days: %d
`, DefaultOutput, DefaultKey, DefaultOrder, DefaultSizeMode, DefaultSampleSize, DefaultLogLevel, DefaultLogPath(),
		DefaultLogMaxSize, DefaultLogMaxBackups, DefaultLogMaxAgeDays)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}

	return true, nil
}
