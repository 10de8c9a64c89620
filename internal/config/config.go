package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the outreach engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SES       SESConfig       `yaml:"ses"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Warmup    WarmupConfig    `yaml:"warmup"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the operational HTTP endpoint.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the queue/KV connection settings.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// SESConfig holds AWS SES transport credentials. Empty keys fall back to
// the default AWS credential chain.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// SchedulerConfig tunes the campaign scheduler and send pool.
type SchedulerConfig struct {
	TickMinutes     int `yaml:"tick_minutes"`
	SendWorkers     int `yaml:"send_workers"`
	MaxEmailsPerRun int `yaml:"max_emails_per_run"`
}

// WarmupConfig tunes the warmup engine.
type WarmupConfig struct {
	TickMinutes int `yaml:"tick_minutes"`
}

// LoggingConfig controls log verbosity and PII masking.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// SchedulerTick returns the configured scheduler cadence.
func (s SchedulerConfig) SchedulerTick() time.Duration {
	if s.TickMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.TickMinutes) * time.Minute
}

// WarmupTick returns the configured warmup cadence.
func (w WarmupConfig) WarmupTick() time.Duration {
	if w.TickMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(w.TickMinutes) * time.Minute
}

// RedactPIIEnabled defaults to true when unset.
func (l LoggingConfig) RedactPIIEnabled() bool {
	if l.RedactPII == nil {
		return true
	}
	return *l.RedactPII
}

// Load reads a YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML config (optional) and applies environment
// overrides. A missing file is fine when DATABASE_URL and REDIS_URL are in
// the environment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env if present; no error if missing.
	_ = godotenv.Load()

	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SEND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scheduler.SendWorkers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL not configured (set database.url or DATABASE_URL)")
	}
	if cfg.Redis.URL == "" {
		return nil, fmt.Errorf("redis URL not configured (set redis.url or REDIS_URL)")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30
	}
	if c.SES.Region == "" {
		c.SES.Region = "us-east-1"
	}
	if c.Scheduler.TickMinutes == 0 {
		c.Scheduler.TickMinutes = 5
	}
	if c.Scheduler.SendWorkers == 0 {
		c.Scheduler.SendWorkers = 4
	}
	if c.Scheduler.MaxEmailsPerRun == 0 {
		c.Scheduler.MaxEmailsPerRun = 100
	}
	if c.Warmup.TickMinutes == 0 {
		c.Warmup.TickMinutes = 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
