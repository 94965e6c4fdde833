package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server
	Port           string
	CORSOrigins    []string
	RequestTimeout time.Duration
	LogLevel       string

	// Database
	DB DBConfig

	// Auth
	JWTSecret []byte
	JWTTTL    time.Duration

	// Rate limiting; an empty RedisAddr disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	VoteRateLimit int // per minute per user
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the connection string understood by the postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Load reads configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not parse .env file")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "studyverse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		JWTTTL:        time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		VoteRateLimit: getEnvInt("VOTE_RATE_LIMIT", 60),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		logrus.Warnf("failed to parse %s=%q, using default %d", key, val, defaultVal)
		return defaultVal
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
