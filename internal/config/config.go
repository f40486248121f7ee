package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                       string
	Environment                string
	LogLevel                   string
	AllowedOrigins             []string
	DatabaseURL                string
	AutoMigrate                bool
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int
	TransactionCacheTTLSeconds int
	AuthSecret                 string
	AccessTokenTTLMinutes      int
	SeedDemoData               bool
}

// LoadDotEnv merges KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("TRANSACTION_CACHE_TTL_SECONDS", "600"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 600
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "30"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 30
	}

	cfg := Config{
		Port:                       getEnv("PORT", "8080"),
		Environment:                strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:             splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		AutoMigrate:                getBool("AUTO_MIGRATE", false),
		RedisAddr:                  os.Getenv("REDIS_ADDR"),
		RedisPassword:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                    redisDB,
		TransactionCacheTTLSeconds: cacheTTL,
		AuthSecret:                 strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:      tokenTTL,
		SeedDemoData:               getBool("SEED_DEMO_DATA", true),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return val
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
