// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds all runtime configuration. It is loaded once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MailgunDomain string
	MailgunAPIKey string
	MailFrom      string

	// FrontendBaseURL is the base URL of the web frontend, used to build
	// password reset links.
	FrontendBaseURL string
}

// Load reads the configuration from environment variables. It returns an
// error if any of the database variables are missing; everything else has a
// usable default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASS"),
		DBName:          os.Getenv("DB_NAME"),
		MailgunDomain:   getEnv("MAILGUN_DOMAIN", "mail.tfc-app.tech"),
		MailgunAPIKey:   os.Getenv("MAILGUN_API_KEY"),
		MailFrom:        getEnv("MAIL_FROM", "Training Frequency Calculator <team@mail.tfc-app.tech>"),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:19006"),
	}

	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("database environment variables not set")
	}

	return cfg, nil
}

// DatabaseDSN builds the connection string for the configured database.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
