package config

import (
	"os"
	"strconv"
	"time"
)

// Composer holds the settings of the loan composer service.
type Composer struct {
	Port            string
	APIURL          string
	HTTPTimeout     time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
	RateRPS         float64
	RateBurst       int
	RateIdleTTL     time.Duration
	RateCleanup     time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogTTL      time.Duration
	CatalogPrefix   string
	LogLevel        string
}

// DB holds the postgres connection settings.
type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func LoadComposer() Composer {
	return Composer{
		Port:            GetEnv("COMPOSER_PORT", "8080"),
		APIURL:          GetEnv("SCV_API_URL", "http://localhost:8060"),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		BreakerFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:  getEnvDuration("BREAKER_TIMEOUT", 10*time.Second),
		RateRPS:         getEnvFloat("RATE_RPS", 20),
		RateBurst:       getEnvInt("RATE_BURST", 40),
		RateIdleTTL:     getEnvDuration("RATE_IDLE_TTL", 15*time.Minute),
		RateCleanup:     getEnvDuration("RATE_CLEANUP_EVERY", 2*time.Minute),
		RedisAddr:       GetEnv("REDIS_ADDR", ""),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CatalogTTL:      getEnvDuration("CATALOG_TTL", time.Minute),
		CatalogPrefix:   GetEnv("CATALOG_PREFIX", "scv:catalog"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
	}
}

func LoadDB(defaultName string) DB {
	return DB{
		Host:     GetEnv("DB_HOST", "postgres"),
		Port:     GetEnv("DB_PORT", "5432"),
		User:     GetEnv("DB_USER", "program"),
		Password: GetEnv("DB_PASSWORD", "test"),
		Name:     GetEnv("DB_NAME", defaultName),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
