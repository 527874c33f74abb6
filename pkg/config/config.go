package config

import (
	"errors"
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
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Exports  ExportsConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig tunes the timetable generator. The weights default to the
// values the objective function was calibrated with; the time limit is
// clamped by the solver itself.
type SolverConfig struct {
	Enabled               bool
	TimeLimit             time.Duration
	IdleGapWeight         float64
	EarlyDifficultWeight  float64
	WorkloadBalanceWeight float64
	AllowOddConsecutive   bool
	LockTTL               time.Duration
	WorkerConcurrency     int
}

// ExportsConfig controls timetable export rendering.
type ExportsConfig struct {
	SchoolName string
	FooterNote string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Enabled:               v.GetBool("ENABLE_SOLVER"),
		TimeLimit:             parseDuration(v.GetString("SOLVER_TIME_LIMIT"), 60*time.Second),
		IdleGapWeight:         v.GetFloat64("SOLVER_IDLE_GAP_WEIGHT"),
		EarlyDifficultWeight:  v.GetFloat64("SOLVER_EARLY_DIFFICULT_WEIGHT"),
		WorkloadBalanceWeight: v.GetFloat64("SOLVER_WORKLOAD_BALANCE_WEIGHT"),
		AllowOddConsecutive:   v.GetBool("SOLVER_ALLOW_ODD_CONSECUTIVE"),
		LockTTL:               parseDuration(v.GetString("SOLVER_LOCK_TTL"), 10*time.Minute),
		WorkerConcurrency:     v.GetInt("SOLVER_WORKER_CONCURRENCY"),
	}

	cfg.Exports = ExportsConfig{
		SchoolName: v.GetString("EXPORT_SCHOOL_NAME"),
		FooterNote: v.GetString("EXPORT_FOOTER_NOTE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SOLVER", true)
	v.SetDefault("SOLVER_TIME_LIMIT", "60s")
	v.SetDefault("SOLVER_IDLE_GAP_WEIGHT", 5.0)
	v.SetDefault("SOLVER_EARLY_DIFFICULT_WEIGHT", 2.0)
	v.SetDefault("SOLVER_WORKLOAD_BALANCE_WEIGHT", 1.0)
	v.SetDefault("SOLVER_ALLOW_ODD_CONSECUTIVE", false)
	v.SetDefault("SOLVER_LOCK_TTL", "10m")
	v.SetDefault("SOLVER_WORKER_CONCURRENCY", 1)

	v.SetDefault("EXPORT_SCHOOL_NAME", "SMA Timetable")
	v.SetDefault("EXPORT_FOOTER_NOTE", "")
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
