package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full deployment configuration, read from the environment.
type Config struct {
	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":5000"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"students.db"`

	WebhookURL     string        `env:"N8N_WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"2s"`
	TaskTimeout    time.Duration `env:"TASK_TIMEOUT" envDefault:"5s"`

	Gemini       GeminiConfig
	PhishingLink string `env:"PHISHING_LINK" envDefault:"https://adversarialattacksimulator.netlify.app"`

	ExportName       string         `env:"EXPORT_NAME" envDefault:"Phishing Simulation Data"`
	LeaderboardLimit int            `env:"LEADERBOARD_LIMIT" envDefault:"10"`
	PointOverrides   map[string]int `env:"POINT_OVERRIDES"`

	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"0s"`
	Storage          StorageConfig
}

type GeminiConfig struct {
	APIKey  string        `env:"GEMINI_API_KEY"`
	Model   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-pro"`
	BaseURL string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 or AWS S3).
type StorageConfig struct {
	Bucket          string `env:"S3_BUCKET"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"auto"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Load reads .env (if present) into the process environment and parses it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SnapshotInterval < 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL must not be negative")
	}
	if c.SnapshotInterval > 0 && c.Storage.Bucket == "" {
		return fmt.Errorf("SNAPSHOT_INTERVAL requires S3_BUCKET")
	}
	if c.LeaderboardLimit < 0 {
		return fmt.Errorf("LEADERBOARD_LIMIT must not be negative")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS and trims each entry.
func (c *Config) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
