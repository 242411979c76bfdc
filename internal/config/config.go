package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration as read from YAML.
type Config struct {
	Server struct {
		URL               string `yaml:"url"`
		HandshakeTimeout  string `yaml:"handshake_timeout"`
		PongWait          string `yaml:"pong_wait"`
		ReconnectAttempts int    `yaml:"reconnect_attempts"`
		ReconnectWait     string `yaml:"reconnect_wait"`
	} `yaml:"server"`
	Content struct {
		URL      string `yaml:"url"`
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"content"`
	Session struct {
		Policy     string `yaml:"policy"`
		ResyncWait string `yaml:"resync_wait"`
		Profile    string `yaml:"profile"`
	} `yaml:"session"`
	Identity struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		TTL     string `yaml:"ttl"`
	} `yaml:"identity"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Identity backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.URL = "ws://localhost:3001/ws"
	cfg.Server.HandshakeTimeout = "10s"
	cfg.Server.PongWait = "60s"
	cfg.Server.ReconnectAttempts = 5
	cfg.Server.ReconnectWait = "1s"
	cfg.Content.URL = "http://localhost:3001/api"
	cfg.Content.Timeout = "10s"
	cfg.Content.CacheTTL = "5m"
	cfg.Session.Policy = "immediate"
	cfg.Session.ResyncWait = "5s"
	cfg.Session.Profile = "default"
	cfg.Identity.Backend = BackendFile
	cfg.Identity.TTL = "24h"
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	return cfg
}

// Load reads YAML config from path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()
	applyEnv(&cfg)

	if cfg.Identity.Dir == "" {
		cfg.Identity.Dir = defaultIdentityDir()
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"TRIVIA_SERVER_URL":  &cfg.Server.URL,
		"TRIVIA_CONTENT_URL": &cfg.Content.URL,
		"TRIVIA_POLICY":      &cfg.Session.Policy,
		"TRIVIA_PROFILE":     &cfg.Session.Profile,
		"TRIVIA_IDENTITY":    &cfg.Identity.Backend,
		"REDIS_ADDR":         &cfg.Redis.Addr,
		"REDIS_PASSWORD":     &cfg.Redis.Password,
		"POSTGRES_URL":       &cfg.Postgres.URL,
		"LOG_LEVEL":          &cfg.Log.Level,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
}

// IdentityPath is the identity file for the configured profile.
func (c Config) IdentityPath() string {
	profile := c.Session.Profile
	if profile == "" {
		profile = "default"
	}
	return filepath.Join(c.Identity.Dir, profile+".yaml")
}

func defaultIdentityDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "trivia-client")
	}
	return ".trivia-client"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
