// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV overrides like DATABASE_POSTGRES_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, optional.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory upward, falling back to
// system environment variables.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env overrides when values are still
// empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Dispatch.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Dispatch.AWS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields. The
// schedule and notification defaults are the clinical-policy constants the
// engine documents as tunables.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "immunization-engine"
	}
	if cfg.App.DailyPassHour == 0 {
		cfg.App.DailyPassHour = 6
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Schedule engine defaults
	if cfg.Schedule.AnticipationDays == 0 {
		cfg.Schedule.AnticipationDays = 14
	}
	if cfg.Schedule.ToleranceDays == 0 {
		cfg.Schedule.ToleranceDays = 30
	}
	if cfg.Schedule.LookaheadDays == 0 {
		cfg.Schedule.LookaheadDays = 90
	}
	if cfg.Schedule.MaxRetroactiveYears == 0 {
		cfg.Schedule.MaxRetroactiveYears = 20
	}
	if cfg.Schedule.CompleteThresholdPercent == 0 {
		cfg.Schedule.CompleteThresholdPercent = 95
	}
	if cfg.Schedule.ProgressThresholdPercent == 0 {
		cfg.Schedule.ProgressThresholdPercent = 80
	}

	// Notification scheduler defaults
	if cfg.Notifications.ReminderLeadDays == 0 {
		cfg.Notifications.ReminderLeadDays = 14
	}
	if cfg.Notifications.BirthdayLeadDays == 0 {
		cfg.Notifications.BirthdayLeadDays = 3
	}
	if cfg.Notifications.OverdueRealertDays == 0 {
		cfg.Notifications.OverdueRealertDays = 7
	}
	if cfg.Notifications.CompleteRealertDays == 0 {
		cfg.Notifications.CompleteRealertDays = 30
	}
	if cfg.Notifications.ReactionSeverityThreshold == "" {
		cfg.Notifications.ReactionSeverityThreshold = "SEVERE"
	}

	// Dispatch defaults
	if cfg.Dispatch.SMS.PriorityThreshold == "" {
		cfg.Dispatch.SMS.PriorityThreshold = "URGENT"
	}
	if cfg.Dispatch.BatchSize == 0 {
		cfg.Dispatch.BatchSize = 100
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig rejects configurations the engine cannot run with.
func validateConfig(cfg *Config) error {
	if cfg.Schedule.AnticipationDays < 0 {
		return fmt.Errorf("schedule.anticipation_days must not be negative")
	}
	if cfg.Schedule.ToleranceDays < 0 {
		return fmt.Errorf("schedule.tolerance_days must not be negative")
	}
	if cfg.Schedule.CompleteThresholdPercent < cfg.Schedule.ProgressThresholdPercent {
		return fmt.Errorf("schedule.complete_threshold_percent must be >= progress_threshold_percent")
	}
	if cfg.Notifications.ReminderLeadDays < 1 {
		return fmt.Errorf("notifications.reminder_lead_days must be positive")
	}
	if cfg.Notifications.OverdueRealertDays < 1 {
		return fmt.Errorf("notifications.overdue_realert_days must be positive")
	}
	if cfg.App.DailyPassHour < 0 || cfg.App.DailyPassHour > 23 {
		return fmt.Errorf("app.daily_pass_hour must be in 0..23")
	}
	return nil
}
