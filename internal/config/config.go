package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=agri port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig

	// Warnings collects non-fatal findings, logged once the logger exists.
	Warnings []string
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
	// Location decides where a calendar month starts for reports.
	Location *time.Location
}

type DatabaseConfig struct {
	Driver          string // postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type LogConfig struct {
	Level string
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load reads the configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("HTTP_PORT", "8080"),
			Env:         getEnv("APP_ENV", "development"),
			CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:             getEnv("DATABASE_DSN", defaultDSN),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWT.Secret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}
	if cfg.JWT.Expiration <= 0 {
		return nil, errors.New("JWT_EXPIRATION_HOURS must be positive")
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.DSN == defaultDSN {
			cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN uses the default local postgres connection")
		}
	case "sqlite":
		if cfg.Database.DSN == defaultDSN {
			cfg.Database.DSN = "agri.db"
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}

	tz := getEnv("TIMEZONE", "Africa/Porto-Novo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Server.Location = loc

	if len(cfg.Server.CORSOrigins) == 0 {
		return nil, errors.New("CORS_ALLOWED_ORIGINS is empty")
	}
	if strings.Join(cfg.Server.CORSOrigins, ",") == defaultCORSOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS uses the local development origins")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
