package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 20, cfg.Pagination.PageSize)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "/tmp/records.db"

[logging]
level = "debug"

[pagination]
page_size = 50
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/records.db", cfg.Database.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 50, cfg.Pagination.PageSize)

	// Untouched sections keep their defaults.
	require.Equal(t, Default().Backup.Dir, cfg.Backup.Dir)
	require.Equal(t, Default().Logging.MaxSizeMB, cfg.Logging.MaxSizeMB)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
level = "loud"
`), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = ""
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
