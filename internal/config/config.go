package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL        string `env:"RABBITMQ_URL,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	GeminiAPIURL       string `env:"GEMINI_API_URL,default=https://generativelanguage.googleapis.com"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY,required=true"`
	GeminiModel        string `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	DeviceBridgeURL    string `env:"DEVICE_BRIDGE_URL,required=true"`
	OwnPackage         string `env:"OWN_PACKAGE,default=com.notifa.ai"`
	WorkerConcurrency  int    `env:"WORKER_CONCURRENCY,default=8"`
	ClassifyRatePerSec int    `env:"CLASSIFY_RATE_PER_SEC,default=25"`
	RetentionHours     int    `env:"RETENTION_HOURS,default=24"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
