package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abelzeko/riverflow/internal/integration"
)

// isolate runs the test in an empty directory with riverflow variables cleared
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	for _, key := range []string{
		"RIVERFLOW_CONFIG", "RIVERFLOW_BASE_URL", "RIVERFLOW_API_KEY", "RIVERFLOW_STATION_PAGES",
		"RIVERFLOW_HTTP_TIMEOUT", "LOG_LEVEL", "RIVERFLOW_HISTORY_DB", "RIVERFLOW_WATCH_SCHEDULE",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, integration.DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, integration.DefaultStationPages, cfg.API.StationPages)
	require.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "*/15 * * * *", cfg.Watch.Schedule)
	require.Empty(t, cfg.History.DBPath)

	_, err = cfg.Credentials().APIKey()
	require.Error(t, err)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  baseUrl: https://example.test/scrapi/
  key: from-file
  timeout: 5s
history:
  dbPath: data/lookups.db
telegram:
  chatId: 7
`), 0o644))

	t.Setenv("RIVERFLOW_CONFIG", path)
	t.Setenv("RIVERFLOW_API_KEY", "from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://example.test/scrapi/", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, "data/lookups.db", cfg.History.DBPath)
	require.Equal(t, int64(12345), cfg.Telegram.ChatID)
	require.Equal(t, "debug", cfg.Log.Level)

	key, err := cfg.Credentials().APIKey()
	require.NoError(t, err)
	require.Equal(t, "from-env", key)
}

func TestLoadDefaultConfigPathAndDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigPath), []byte("watch:\n  schedule: \"@hourly\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RIVERFLOW_STATION_PAGES=1,2\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RIVERFLOW_STATION_PAGES") })
	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("RIVERFLOW_STATION_PAGES")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "@hourly", cfg.Watch.Schedule)
	require.Equal(t, "1,2", cfg.API.StationPages)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"RIVERFLOW_HTTP_TIMEOUT", "soon", "RIVERFLOW_HTTP_TIMEOUT"},
		{"TELEGRAM_CHAT_ID", "chat", "TELEGRAM_CHAT_ID"},
		{"RIVERFLOW_BASE_URL", "vps267042.vps.ovh.ca/scrapi", "api.baseUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.API.Timeout = 0
	require.ErrorContains(t, cfg.Validate(), "api.timeout")

	cfg = Default()
	cfg.API.StationPages = " "
	require.ErrorContains(t, cfg.Validate(), "api.stationPages")

	cfg = Default()
	cfg.API.BaseURL = "ftp://example.test/"
	require.ErrorContains(t, cfg.Validate(), "api.baseUrl")
}
