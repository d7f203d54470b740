package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_sec"`
}

type DatabaseConfig struct {
	DSN            string `yaml:"url"`
	MigrationsPath string `yaml:"migrations_path"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

type EmailConfig struct {
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUser      string `yaml:"smtp_user"`
	SMTPPassword  string `yaml:"smtp_password"`
	FromEmail     string `yaml:"from_email"`
	SecurityEmail string `yaml:"security_email"`
	ResetBaseURL  string `yaml:"reset_base_url"`
}

type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	AccessTTLMin int    `yaml:"access_ttl_min"`
}

type NotifyConfig struct {
	QueueSize  int `yaml:"queue_size"`
	TimeoutSec int `yaml:"timeout_sec"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// LoadConfig reads a YAML config from path. An empty path falls back to the
// CONFIG env var, then to config/config.yaml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Server.ShutdownSec == 0 {
		c.Server.ShutdownSec = 30
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Database.TimeoutSec == 0 {
		c.Database.TimeoutSec = 10
	}
	if c.Auth.AccessTTLMin == 0 {
		c.Auth.AccessTTLMin = 15
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 128
	}
	if c.Notify.TimeoutSec == 0 {
		c.Notify.TimeoutSec = 10
	}
}

func (c *Config) DBTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSec) * time.Second
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMin) * time.Minute
}

func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutSec) * time.Second
}
