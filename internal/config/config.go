package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultLogLevel     = "info"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
	defaultPageSize     = 20
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	Backup     BackupConfig     `toml:"backup"`
	Pagination PaginationConfig `toml:"pagination"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type BackupConfig struct {
	Dir string `toml:"dir"`
}

type PaginationConfig struct {
	PageSize int `toml:"page_size"`
}

// Default returns the configuration used when no config file exists. Paths
// live under the user's home so a bare binary works out of the box.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".patient-record")

	return Config{
		Database: DatabaseConfig{
			Path: filepath.Join(base, "patient_records.db"),
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
		Backup: BackupConfig{
			Dir: filepath.Join(base, "backups"),
		},
		Pagination: PaginationConfig{
			PageSize: defaultPageSize,
		},
	}
}

// Load reads the TOML config at path, filling unset fields with defaults. A
// missing file is not an error; the defaults apply wholesale.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaults.Database.Path
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if cfg.Logging.MaxFiles <= 0 {
		cfg.Logging.MaxFiles = defaultLogMaxFiles
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = defaults.Backup.Dir
	}
	if cfg.Pagination.PageSize <= 0 {
		cfg.Pagination.PageSize = defaultPageSize
	}
}

func (c Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path must not be empty", ErrInvalidConfig)
	}
	return nil
}
