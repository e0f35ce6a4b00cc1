package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port int
}

// DatabaseConfig is the fixed connection tuple for the posts database.
// Schema qualifies the posts table.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Schema   string
	SSLMode  string
	Debug    bool
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 9999,
		},
		Database: DatabaseConfig{
			Host:     "0.0.0.0",
			Port:     5432,
			User:     "app",
			Password: "pass",
			Name:     "app",
			Schema:   "social",
			SSLMode:  "disable",
		},
	}
}

// Load reads a .env file when one exists and then overrides the defaults
// with whatever is set in the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		cfg.Database.Port = port
	}

	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.Schema, "DB_SCHEMA")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	if v := os.Getenv("DB_DEBUG"); v != "" {
		cfg.Database.Debug = v == "true"
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
