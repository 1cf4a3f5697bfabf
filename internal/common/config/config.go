// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Dispatch      DispatchConfig     `mapstructure:"dispatch"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// DailyPassHour is the local hour (0-23) at which the scheduler daemon
	// runs its daily pass.
	DailyPassHour int `mapstructure:"daily_pass_hour"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Engine Tunables ---

// ScheduleConfig holds the clinical-policy tunables of the schedule engine.
// These are exposed as configuration, not hardcoded assumptions.
type ScheduleConfig struct {
	// AnticipationDays is how many days before the target age a dose may be
	// applied when the entry has no explicit minimum age.
	AnticipationDays int `mapstructure:"anticipation_days"`
	// ToleranceDays is how many days past the target age a dose stays
	// on-time when the entry has no explicit maximum age.
	ToleranceDays int `mapstructure:"tolerance_days"`
	// LookaheadDays bounds the projection of upcoming doses.
	LookaheadDays int `mapstructure:"lookahead_days"`
	// MaxRetroactiveYears is the sanity bound on historical application dates.
	MaxRetroactiveYears int `mapstructure:"max_retroactive_years"`
	// CompleteThresholdPercent marks the esquema COMPLETO band.
	CompleteThresholdPercent float64 `mapstructure:"complete_threshold_percent"`
	// ProgressThresholdPercent marks the esquema EN_PROGRESO band.
	ProgressThresholdPercent float64 `mapstructure:"progress_threshold_percent"`
}

// NotificationConfig holds the notification scheduler tunables.
type NotificationConfig struct {
	ReminderLeadDays   int    `mapstructure:"reminder_lead_days"`
	BirthdayLeadDays   int    `mapstructure:"birthday_lead_days"`
	OverdueRealertDays int    `mapstructure:"overdue_realert_days"`
	CompleteRealertDays int   `mapstructure:"complete_realert_days"`
	// ReactionSeverityThreshold is the minimum severity that produces an
	// adverse-reaction alert (SEVERE by default).
	ReactionSeverityThreshold string `mapstructure:"reaction_severity_threshold"`
}

// DispatchConfig holds settings for delivering PENDING notifications.
type DispatchConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
		// PriorityThreshold gates SMS to notifications at or above this
		// priority ("URGENT", "HIGH", ...).
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	BatchSize int `mapstructure:"batch_size"`
}

// MetricsConfig holds the metrics HTTP endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
