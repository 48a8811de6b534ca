package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadMergesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "appsettings.json",
		`{"Settings":{"UserName":"agent@example.com","UserPassword":"prod-token","Pause":"60s"}}`)
	writeSettings(t, dir, "appsettings.development.json",
		`{"Settings":{"UserPassword":"dev-token"}}`)

	cfg, err := Load(dir, DefaultEnvironment, "")
	require.NoError(t, err)

	assert.Len(t, cfg.GetPaths(), 2)
	assert.Equal(t, DefaultEnvironment, cfg.GetEnvironment())

	s, err := GetSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", s.UserName)
	assert.Equal(t, "dev-token", s.UserPassword)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, DefaultFilter, s.Filter)
	assert.Equal(t, DefaultPerPage, s.PerPage)
	assert.Equal(t, DefaultFanOut, s.FanOut)
	assert.Equal(t, DefaultUserCooldown, s.UserCooldown)
	assert.Equal(t, 60*time.Second, s.Pause)
	assert.Equal(t, 0, s.MaxPasses)
}

func TestLoadNamedSection(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "appsettings.json", `{"Zendesk":{"UserName":"a","UserPassword":"b"}}`)

	cfg, err := Load(dir, "", "Zendesk")
	require.NoError(t, err)

	assert.Equal(t, "a", cfg.GetString(UserNameConfigPath))
	assert.Equal(t, "b", cfg.GetString(UserPasswordConfigPath))
}

func TestEnvironmentVariablesOverrideFiles(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "appsettings.json", `{"Settings":{"UserName":"file","UserPassword":"file"}}`)
	t.Setenv("DESKCTL_SETTINGS_USERPASSWORD", "from-env")
	t.Setenv("DESKCTL_SETTINGS_MAX_PASSES", "3")

	cfg, err := Load(dir, "", "")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString(UserPasswordConfigPath))
	assert.Equal(t, 3, cfg.GetInt(MaxPassesConfigPath))
}

func TestBindFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "appsettings.json", `{"Settings":{"Fan-Out":2}}`)

	cfg, err := Load(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.GetInt(FanOutConfigPath))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("fan-out", 0, "")
	require.NoError(t, fs.Parse([]string{"--fan-out", "8"}))
	require.NoError(t, cfg.BindFlag(FanOutConfigPath, fs.Lookup("fan-out")))

	assert.Equal(t, 8, cfg.GetInt(FanOutConfigPath))
}

func TestGetSettingsValidation(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", "")
	require.NoError(t, err)
	cfg.Set(BaseURLConfigPath, "not a url")
	cfg.Set(FanOutConfigPath, 0)

	_, err = GetSettings(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username is required")
	assert.Contains(t, err.Error(), "userpassword is required")
	assert.Contains(t, err.Error(), "base-url")
	assert.Contains(t, err.Error(), "fan-out must be positive")
}

func TestGetIntOrElse(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", "")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.GetIntOrElse("unset-key", 7))
	cfg.Set("unset-key", 9)
	assert.Equal(t, 9, cfg.GetIntOrElse("unset-key", 7))
}

func TestFilePaths(t *testing.T) {
	assert.Equal(t, []string{filepath.Join("d", "appsettings.json")}, FilePaths("d", " "))
	assert.Equal(t, []string{
		filepath.Join("d", "appsettings.json"),
		filepath.Join("d", "appsettings.staging.json"),
	}, FilePaths("d", "staging"))
}
