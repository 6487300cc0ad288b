package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	RunMigrations bool

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Cache     ScheduleCacheConfig
	Calendar  CalendarConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the secret used to verify access tokens issued by the
// identity service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig bounds the backtracking search and the async run pipeline.
type SchedulerConfig struct {
	MaxNodes  int
	Timeout   time.Duration
	Optimizer string
	RunTTL    time.Duration
	Workers   int
	Retries   int

	// JobTimeout caps one async run including store access.
	JobTimeout time.Duration
}

// ScheduleCacheConfig governs caching of weekly views.
type ScheduleCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// CalendarConfig controls iCalendar rendering and subscription feeds.
type CalendarConfig struct {
	TimeZone   string
	UIDDomain  string
	FeedSecret string
	FeedTTL    time.Duration
	ExportDir  string
	PublicURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		MaxNodes:   v.GetInt("SCHEDULER_MAX_NODES"),
		Timeout:    parseDuration(v.GetString("SCHEDULER_TIMEOUT"), 30*time.Second),
		Optimizer:  strings.ToLower(strings.TrimSpace(v.GetString("SCHEDULER_OPTIMIZER"))),
		RunTTL:     parseDuration(v.GetString("SCHEDULER_RUN_TTL"), time.Hour),
		Workers:    v.GetInt("SCHEDULER_WORKERS"),
		Retries:    v.GetInt("SCHEDULER_RETRIES"),
		JobTimeout: parseDuration(v.GetString("SCHEDULER_JOB_TIMEOUT"), 15*time.Minute),
	}

	cfg.Cache = ScheduleCacheConfig{
		Enabled: v.GetBool("SCHEDULE_CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Calendar = CalendarConfig{
		TimeZone:   v.GetString("CALENDAR_TIMEZONE"),
		UIDDomain:  v.GetString("CALENDAR_UID_DOMAIN"),
		FeedSecret: v.GetString("CALENDAR_FEED_SECRET"),
		FeedTTL:    parseDuration(v.GetString("CALENDAR_FEED_TTL"), 180*24*time.Hour),
		ExportDir:  v.GetString("CALENDAR_EXPORT_DIR"),
		PublicURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RUN_MIGRATIONS", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_NODES", 2000000)
	v.SetDefault("SCHEDULER_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_OPTIMIZER", "identity")
	v.SetDefault("SCHEDULER_RUN_TTL", "1h")
	v.SetDefault("SCHEDULER_WORKERS", 2)
	v.SetDefault("SCHEDULER_RETRIES", 0)
	v.SetDefault("SCHEDULER_JOB_TIMEOUT", "15m")

	v.SetDefault("SCHEDULE_CACHE_ENABLED", true)
	v.SetDefault("SCHEDULE_CACHE_TTL", "10m")

	v.SetDefault("CALENDAR_TIMEZONE", "UTC")
	v.SetDefault("CALENDAR_UID_DOMAIN", "campus-scheduler.local")
	v.SetDefault("CALENDAR_FEED_SECRET", "dev_calendar_secret")
	v.SetDefault("CALENDAR_FEED_TTL", "4320h")
	v.SetDefault("CALENDAR_EXPORT_DIR", "./exports")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
