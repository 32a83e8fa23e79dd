package config

import (
	"os"
	"time"
)

type Config struct {
	HTTPPort        string
	APIBaseURL      string
	EmpCD           string
	StoreCD         string
	PosNo           string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CacheTTL        time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8000"),
		EmpCD:           getEnv("EMP_CD", "1"),
		StoreCD:         getEnv("STORE_CD", "30"),
		PosNo:           getEnv("POS_NO", "1"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CacheTTL:        getDuration("PRODUCT_CACHE_TTL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
