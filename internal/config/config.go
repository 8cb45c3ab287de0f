// Package config provides configuration loading, validation, and management
// for the bot. It reads an optional YAML file, overlays BOT_* environment
// variables, applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // zoneinfo for images without /usr/share/zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by Load.
var ErrConfiguration = errors.New("configuration error")

// Task names known to the scheduler.
const (
	TaskCleanupSweep   = "cleanup_sweep"
	TaskSQLMaintenance = "sql_maintenance"
)

// Config defines the application configuration parameters.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Retention RetentionConfig `mapstructure:"retention"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite file holding the retention store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig holds the bot credential and Bot API call limits.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"    validate:"min=1s,max=2m"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// RetentionConfig describes when tracked messages become eligible for
// deletion and when the daily sweep fires.
type RetentionConfig struct {
	Window    time.Duration `mapstructure:"window"     validate:"min=1m"`
	SweepTime string        `mapstructure:"sweep_time" validate:"required,datetime=15:04"`
	Timezone  string        `mapstructure:"timezone"   validate:"required,timezone"`
}

// Location resolves the configured civil timezone.
func (r RetentionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// SweepCron converts SweepTime into a five-field cron expression.
func (r RetentionConfig) SweepCron() (string, error) {
	t, err := time.Parse("15:04", r.SweepTime)
	if err != nil {
		return "", fmt.Errorf("invalid sweep time %q: %w", r.SweepTime, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-visible text.
type MessagesConfig struct {
	Announcement    string `mapstructure:"announcement"     validate:"required"`
	CleanupEnabled  string `mapstructure:"cleanup_enabled"  validate:"required"`
	CleanupDisabled string `mapstructure:"cleanup_disabled" validate:"required"`
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Help            string `mapstructure:"help"             validate:"required"`
}

// MetricsConfig enables the Prometheus listener when Address is set.
type MetricsConfig struct {
	Address string `mapstructure:"address" validate:"omitempty,hostname_port"`
}

// Load reads configuration from:
//  1. default values
//  2. the YAML file at path (or ./config.yaml when path is empty); a missing file is fine
//  3. BOT_* environment variables (BOT_TELEGRAM_TOKEN, BOT_RETENTION_WINDOW, ...)
//
// BOT_TOKEN is accepted as an alias for the bot credential.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.token", "BOT_TELEGRAM_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind token env: %v", ErrConfiguration, err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Only the implicit ./config.yaml may be absent.
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if path != "" || !missing {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
		slog.Info("configuration file not found, using defaults and environment")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// The sweep schedule always follows retention.sweep_time.
	sweepCron, err := cfg.Retention.SweepCron()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if cfg.Scheduler.Tasks == nil {
		cfg.Scheduler.Tasks = make(map[string]TaskConfig)
	}
	cfg.Scheduler.Tasks[TaskCleanupSweep] = TaskConfig{Enabled: true, Schedule: sweepCron}

	slog.Info("configuration loaded successfully",
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Database.Path,
		"retention_window", cfg.Retention.Window,
		"sweep_time", cfg.Retention.SweepTime,
		"timezone", cfg.Retention.Timezone)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.request_timeout", DefaultRequestTimeout)
	v.SetDefault("telegram.poll_timeout", DefaultPollTimeout)

	v.SetDefault("retention.window", DefaultRetentionWindow)
	v.SetDefault("retention.sweep_time", DefaultSweepTime)
	v.SetDefault("retention.timezone", DefaultTimezone)

	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", DefaultSQLMaintenanceSchedule)

	v.SetDefault("messages.announcement", DefaultAnnouncement)
	v.SetDefault("messages.cleanup_enabled", DefaultCleanupEnabledMsg)
	v.SetDefault("messages.cleanup_disabled", DefaultCleanupDisabledMsg)
	v.SetDefault("messages.welcome", DefaultWelcomeMsg)
	v.SetDefault("messages.help", DefaultHelpMsg)

	v.SetDefault("metrics.address", "")
}
