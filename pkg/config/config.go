package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Engine  EngineConfig
	Sink    SinkConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// Attribution engine settings
type EngineConfig struct {
	WorkerPoolSize int
}

// Export sink settings
type SinkConfig struct {
	URL            string
	Secret         string
	RequestTimeout time.Duration
	RatePerSecond  int
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", "30s"),
		},
		Engine: EngineConfig{
			WorkerPoolSize: getIntEnv("WORKER_POOL_SIZE", 10),
		},
		Sink: SinkConfig{
			URL:            getEnv("SINK_URL", ""),
			Secret:         getEnv("SINK_SECRET", ""),
			RequestTimeout: getDurationEnv("SINK_TIMEOUT", "30s"),
			RatePerSecond:  getIntEnv("SINK_RATE_PER_SECOND", 100),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
