package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAdminToken is used when neither admin.token nor admin.token_hash is set.
const DefaultAdminToken = "change-me-admin-token"

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`
	Admin struct {
		Token     string `yaml:"token"`
		TokenHash string `yaml:"token_hash"`
	} `yaml:"admin"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTL        string `yaml:"ttl"`
		AttemptTTL string `yaml:"attempt_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL  string `yaml:"ttl"`
		Tick string `yaml:"tick"`
	} `yaml:"quiz"`
	Seed struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"seed"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file yields defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Config{}
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
	applyEnv(&cfg, os.Getenv)
	if cfg.Admin.Token == "" && cfg.Admin.TokenHash == "" {
		cfg.Admin.Token = DefaultAdminToken
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := getenv("ADMIN_TOKEN_HASH"); v != "" {
		cfg.Admin.TokenHash = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
}

// SeedEnabled reports whether the sample quiz is seeded into an empty catalog. Defaults to true.
func (c Config) SeedEnabled() bool {
	return c.Seed.Enabled == nil || *c.Seed.Enabled
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
