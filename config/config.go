/*
Package config loads the server configuration.

PURPOSE:
  Configuration is assembled in layers, later layers winning:

    defaults      -> Default()
    YAML file     -> Load(path), sections server/database/log/defaults/monitor
    .env file     -> loaded into the process environment if present
    environment   -> HRPORTAL_PORT, HRPORTAL_DB, HRPORTAL_LOG_LEVEL, HRPORTAL_LOG_FORMAT

  Command-line flags are applied by cmd/server after Load returns.

SEE ALSO:
  - settings: the Default work policy built from the defaults section
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvPort      = "HRPORTAL_PORT"
	EnvDatabase  = "HRPORTAL_DB"
	EnvLogLevel  = "HRPORTAL_LOG_LEVEL"
	EnvLogFormat = "HRPORTAL_LOG_FORMAT"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ShutdownTimeout time.Duration `yaml:"-"`
	ReadTimeoutRaw  string        `yaml:"read_timeout"`
	WriteTimeoutRaw string        `yaml:"write_timeout"`
	ShutdownRaw     string        `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig points at the SQLite file. ":memory:" keeps everything in
// process memory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultsConfig is the Default work policy written by the bootstrap step.
// It is used only when no Default policy has been stored yet.
type DefaultsConfig struct {
	VacationDays    int    `yaml:"vacation_days"`
	DailyHours      string `yaml:"daily_hours"`
	HasFlextime     bool   `yaml:"has_flextime"`
	HolidayRegion   string `yaml:"holiday_region"`
	MinBreakMinutes int    `yaml:"min_break_minutes"`
	CanWorkRemote   bool   `yaml:"can_work_remote"`
	CanSelfApprove  bool   `yaml:"can_self_approve"`
}

// MonitorConfig configures the open-session monitor. A zero interval
// disables it.
type MonitorConfig struct {
	Interval      time.Duration `yaml:"-"`
	StaleAfter    time.Duration `yaml:"-"`
	IntervalRaw   string        `yaml:"interval"`
	StaleAfterRaw string        `yaml:"stale_after"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
			ReadTimeoutRaw:  "15s",
			WriteTimeoutRaw: "15s",
			ShutdownRaw:     "10s",
		},
		Database: DatabaseConfig{Path: "hrportal.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Defaults: DefaultsConfig{
			VacationDays:    30,
			DailyHours:      "8",
			HolidayRegion:   "DE",
			MinBreakMinutes: 30,
		},
		Monitor: MonitorConfig{IntervalRaw: "5m", StaleAfterRaw: "10h"},
	}
}

// Load reads path (when non-empty) over the defaults, applies .env and the
// environment, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvDatabase); ok {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate re-checks the configuration after flags have been applied.
func (c *Config) Validate() error {
	return c.validateAndNormalize()
}

func (c *Config) validateAndNormalize() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	var err error
	if c.Server.ReadTimeout, err = parseDurationAllowEmpty(c.Server.ReadTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if c.Server.WriteTimeout, err = parseDurationAllowEmpty(c.Server.WriteTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if c.Server.ShutdownTimeout, err = parseDurationAllowEmpty(c.Server.ShutdownRaw); err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}

	for _, o := range c.Server.AllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return fmt.Errorf("config: server.allowed_origins: \"*\" is not allowed because the API accepts credentials; list the origins")
		}
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path must be set")
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}

	if _, err := c.Defaults.Policy(); err != nil {
		return err
	}

	if c.Monitor.Interval, err = parseDurationAllowEmpty(c.Monitor.IntervalRaw); err != nil {
		return fmt.Errorf("config: monitor.interval: %w", err)
	}
	if c.Monitor.StaleAfter, err = parseDurationAllowEmpty(c.Monitor.StaleAfterRaw); err != nil {
		return fmt.Errorf("config: monitor.stale_after: %w", err)
	}
	if c.Monitor.Interval > 0 && c.Monitor.StaleAfter <= 0 {
		return fmt.Errorf("config: monitor.stale_after must be set when the monitor is enabled")
	}
	return nil
}

// Policy converts the defaults section into a validated EffectivePolicy.
// The region code is normalised; whether it is known is checked at bootstrap.
func (d DefaultsConfig) Policy() (settings.EffectivePolicy, error) {
	hours, err := decimal.NewFromString(strings.TrimSpace(d.DailyHours))
	if err != nil {
		return settings.EffectivePolicy{}, fmt.Errorf("config: defaults.daily_hours: %w", err)
	}
	region, err := calendar.ParseRegion(d.HolidayRegion)
	if err != nil {
		return settings.EffectivePolicy{}, fmt.Errorf("config: defaults.holiday_region: %w", err)
	}
	p := settings.EffectivePolicy{
		VacationDays:   d.VacationDays,
		DailyHours:     hours,
		HasFlextime:    d.HasFlextime,
		HolidayRegion:  region.String(),
		MinBreakTime:   d.MinBreakMinutes,
		CanWorkRemote:  d.CanWorkRemote,
		CanSelfApprove: d.CanSelfApprove,
	}
	if err := settings.FromEffective(p).Validate(); err != nil {
		return settings.EffectivePolicy{}, fmt.Errorf("config: defaults: %w", err)
	}
	return p, nil
}

// NewLogger builds a logrus logger from the log section.
func (l LogConfig) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(l.Level); err == nil {
		log.SetLevel(level)
	}
	if l.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
