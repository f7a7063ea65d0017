package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrportal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `server:
  port: 9090
  allowed_origins: ["http://localhost:3000"]
  read_timeout: "5s"
database:
  path: /tmp/hr.db
log:
  level: DEBUG
  format: json
defaults:
  vacation_days: 28
  daily_hours: "7.5"
  holiday_region: de-nw
  min_break_minutes: 45
  can_work_remote: true
monitor:
  interval: "1m"
  stale_after: "12h"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "/tmp/hr.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 12*time.Hour, cfg.Monitor.StaleAfter)

	p, err := cfg.Defaults.Policy()
	require.NoError(t, err)
	assert.Equal(t, 28, p.VacationDays)
	assert.Equal(t, "7.5", p.DailyHours.String())
	assert.Equal(t, "DE-NW", p.HolidayRegion)
	assert.Equal(t, 45, p.MinBreakTime)
	assert.True(t, p.CanWorkRemote)
	assert.False(t, p.CanSelfApprove)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "hrportal.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Server.AllowedOrigins)

	p, err := cfg.Defaults.Policy()
	require.NoError(t, err)
	assert.Equal(t, 30, p.VacationDays)
	assert.Equal(t, "DE", p.HolidayRegion)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv(config.EnvPort, "7070")
	t.Setenv(config.EnvDatabase, ":memory:")
	t.Setenv(config.EnvLogFormat, "JSON")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv(config.EnvPort, "not-a-port")
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"empty database path", "database:\n  path: \"\"\n"},
		{"unknown log level", "log:\n  level: loud\n"},
		{"unknown log format", "log:\n  format: xml\n"},
		{"bad timeout", "server:\n  read_timeout: soon\n"},
		{"wildcard origin", "server:\n  allowed_origins: [\"*\"]\n"},
		{"bad daily hours", "defaults:\n  daily_hours: eight\n"},
		{"daily hours above 24", "defaults:\n  daily_hours: \"25\"\n"},
		{"negative vacation", "defaults:\n  vacation_days: -1\n"},
		{"bad region", "defaults:\n  holiday_region: Germany\n"},
		{"monitor without threshold", "monitor:\n  interval: 1m\n  stale_after: \"\"\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogConfig_NewLogger(t *testing.T) {
	log := config.LogConfig{Level: "warn", Format: "json"}.NewLogger()
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = config.LogConfig{Level: "info", Format: "text"}.NewLogger()
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
