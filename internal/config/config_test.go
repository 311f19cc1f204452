package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/internal/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "PRICELENS_MODEL",
		"PRICELENS_DB", "REDIS_URL", "PRICELENS_DOWNLOADS", "PRICELENS_SHARE_COMMAND"} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "pricelens", cfg.Name)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "sqlite", cfg.Archive.Backend)
	assert.Equal(t, "savedPdfs", cfg.Archive.Key)
	assert.Empty(t, cfg.Share.Command)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := DefaultPath(t.TempDir())

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "k-test"
	cfg.Archive.Backend = "file"
	cfg.Share.Command = []string{"xdg-email", "--attach", "{file}"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "k-test", loaded.LLM.APIKey)
	assert.Equal(t, "file", loaded.Archive.Backend)
	assert.Equal(t, []string{"xdg-email", "--attach", "{file}"}, loaded.Share.Command)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	clearEnv(t)
	path := DefaultPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("API_KEY wins over GEMINI_API_KEY", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gem")
		t.Setenv("API_KEY", "plain")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "plain", cfg.LLM.APIKey)
	})

	t.Run("REDIS_URL selects redis backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "redis", cfg.Archive.Backend)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Archive.RedisURL)
		require.NoError(t, cfg.Validate())
	})

	t.Run("share command is split on whitespace", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRICELENS_SHARE_COMMAND", "termux-share -a send {file}")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, []string{"termux-share", "-a", "send", "{file}"}, cfg.Share.Command)
	})
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0644))
	// godotenv never overrides a variable that exists, even when empty.
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	cfg, err := Load(DefaultPath(ws))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestRequireCredential(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireCredential()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.RequireCredential())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.Backend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Archive.Backend = "redis"
	assert.Error(t, cfg.Validate(), "redis without url")

	cfg = DefaultConfig()
	cfg.LLM.Temperature = 3
	assert.Error(t, cfg.Validate())
}

func TestDurationsFallBack(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())
	cfg.LLM.Timeout = "garbage"
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())
	cfg.Export.CaptureTimeout = "5s"
	assert.Equal(t, 5*time.Second, cfg.GetCaptureTimeout())
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolvePaths("/ws")
	assert.Equal(t, filepath.Join("/ws", DirName, "archive.db"), cfg.Archive.Path)
	assert.Equal(t, filepath.Join("/ws", "downloads"), cfg.Export.DownloadsDir)
	assert.Empty(t, cfg.Logging.File)
}
