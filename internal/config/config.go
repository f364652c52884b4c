package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Logger        LoggerConfig
	Jira          JiraConfig
	Sync          SyncConfig
	BusinessHours BusinessHoursConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// JiraConfig identifies the remote Jira instance and the credentials
// used for Basic auth against its REST API.
type JiraConfig struct {
	BaseURL               string
	Email                 string
	APIToken              string
	PageSize              int
	MaxFetchRetries       int
	RequestTimeoutSeconds int
}

// SyncConfig controls the background sync schedule.
type SyncConfig struct {
	IntervalMinutes int
	AutoStart       bool
}

// BusinessHoursConfig defines the working window used for SLA math.
type BusinessHoursConfig struct {
	StartHour int
	EndHour   int
	Weekdays  []time.Weekday
	Timezone  string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	weekdays, err := parseWeekdays(getEnv("BUSINESS_HOURS_WEEKDAYS", "Mon,Tue,Wed,Thu,Fri"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "jira-mirror"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Jira: JiraConfig{
			BaseURL:               strings.TrimRight(getEnv("JIRA_BASE_URL", ""), "/"),
			Email:                 os.Getenv("JIRA_EMAIL"),
			APIToken:              os.Getenv("JIRA_API_TOKEN"),
			PageSize:              getEnvAsInt("JIRA_PAGE_SIZE", 100),
			MaxFetchRetries:       getEnvAsInt("JIRA_MAX_FETCH_RETRIES", 4),
			RequestTimeoutSeconds: getEnvAsInt("JIRA_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Sync: SyncConfig{
			IntervalMinutes: getEnvAsInt("SYNC_INTERVAL_MINUTES", 15),
			AutoStart:       getEnvAsBool("SYNC_AUTO_START", true),
		},
		BusinessHours: BusinessHoursConfig{
			StartHour: getEnvAsInt("BUSINESS_HOURS_START", 9),
			EndHour:   getEnvAsInt("BUSINESS_HOURS_END", 17),
			Weekdays:  weekdays,
			Timezone:  getEnv("BUSINESS_HOURS_TIMEZONE", "UTC"),
		},
	}

	if err := cfg.BusinessHours.Validate(); err != nil {
		return nil, err
	}
	if cfg.Sync.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL_MINUTES must be positive, got %d", cfg.Sync.IntervalMinutes)
	}

	return cfg, nil
}

// Validate rejects malformed working windows before any computation uses them.
func (b BusinessHoursConfig) Validate() error {
	if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 23 {
		return fmt.Errorf("business hours must be within 0-23, got start=%d end=%d", b.StartHour, b.EndHour)
	}
	if b.StartHour >= b.EndHour {
		return fmt.Errorf("business hours start (%d) must be before end (%d)", b.StartHour, b.EndHour)
	}
	if len(b.Weekdays) == 0 {
		return fmt.Errorf("at least one working weekday required")
	}
	if _, err := time.LoadLocation(b.Timezone); err != nil {
		return fmt.Errorf("invalid BUSINESS_HOURS_TIMEZONE %q: %w", b.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Falls back to UTC if the
// zone database entry disappeared after validation.
func (b BusinessHoursConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Interval returns the background sync period.
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// RequestTimeout returns the per-request timeout for Jira calls.
func (j JiraConfig) RequestTimeout() time.Duration {
	if j.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(j.RequestTimeoutSeconds) * time.Second
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	parts := strings.Split(raw, ",")
	seen := make(map[time.Weekday]bool)
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid BUSINESS_HOURS_WEEKDAYS entry %q", part)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
