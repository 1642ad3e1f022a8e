package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Paths(t *testing.T) {
	t.Run("INSPECTD_DATA_DIR overrides data dir", func(t *testing.T) {
		t.Setenv("INSPECTD_DATA_DIR", "/srv/inspectd")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/srv/inspectd", cfg.DataDir)
	})

	t.Run("INSPECTD_DB overrides database path", func(t *testing.T) {
		t.Setenv("INSPECTD_DB", "/tmp/test.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/test.db", cfg.Storage.DatabasePath)
	})

	t.Run("INSPECTD_CHECKLIST_DIR overrides checklist dir", func(t *testing.T) {
		t.Setenv("INSPECTD_CHECKLIST_DIR", "/etc/inspectd/checklists")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/etc/inspectd/checklists", cfg.Checklists.Dir)
	})

	t.Run("empty values leave config untouched", func(t *testing.T) {
		t.Setenv("INSPECTD_DATA_DIR", "")
		t.Setenv("INSPECTD_DB", "")

		cfg := DefaultConfig()
		before := cfg.Storage.DatabasePath
		cfg.applyEnvOverrides()

		assert.Equal(t, before, cfg.Storage.DatabasePath)
		assert.Equal(t, DefaultDataDir(), cfg.DataDir)
	})
}

func TestEnvOverrides_Comments(t *testing.T) {
	t.Run("INSPECTD_COMMENTS overrides library path", func(t *testing.T) {
		t.Setenv("INSPECTD_COMMENTS", "/srv/comments/library.yaml")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/srv/comments/library.yaml", cfg.Comments.LibraryPath)
	})

	t.Run("INSPECTD_CUSTOM_COMMENTS overrides only the custom path", func(t *testing.T) {
		t.Setenv("INSPECTD_CUSTOM_COMMENTS", "/srv/comments/custom.yaml")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/srv/comments/custom.yaml", cfg.Comments.CustomPath)
		assert.Equal(t, "configs/comments/library.yaml", cfg.Comments.LibraryPath)
	})
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	t.Run("INSPECTD_LOG_LEVEL overrides level", func(t *testing.T) {
		t.Setenv("INSPECTD_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
		require.NoError(t, cfg.Validate())
	})

	t.Run("invalid level is caught by Validate", func(t *testing.T) {
		t.Setenv("INSPECTD_LOG_LEVEL", "loud")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

// Load applies the environment on top of whatever the file (or the
// defaults, when it is missing) provided.
func TestEnvOverridesAppliedOnLoad(t *testing.T) {
	t.Setenv("INSPECTD_DB", "/tmp/env.db")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DatabasePath)
}
