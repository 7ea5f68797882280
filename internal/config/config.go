package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port        string
	DBConn      string
	LogLevel    string
	JWTSecret   string
	RedisAddr   string
	RatesURL    string
	ReclassCron string

	SignalWindowDays int
	TrendWindowDays  int
	TimelineMonths   int
	MonthlySurplus   float64

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBConn:      getEnv("DB_CONN", "host=localhost port=5432 user=persona password=persona dbname=persona sslmode=disable"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RatesURL:    getEnv("RATES_URL", "https://rates.example.com/consumer-apr.xml"),
		ReclassCron: getEnv("RECLASSIFY_CRON", "0 3 * * *"),

		SignalWindowDays: getEnvInt("SIGNAL_WINDOW_DAYS", 90),
		TrendWindowDays:  getEnvInt("TREND_WINDOW_DAYS", 180),
		TimelineMonths:   getEnvInt("TIMELINE_MONTHS", 12),
		MonthlySurplus:   getEnvFloat("MONTHLY_SURPLUS", 500),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "no-reply@persona.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SignalWindowDays <= 0 || cfg.TrendWindowDays < cfg.SignalWindowDays {
		return nil, fmt.Errorf("invalid signal window configuration")
	}
	if cfg.TimelineMonths <= 0 {
		return nil, fmt.Errorf("TIMELINE_MONTHS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
