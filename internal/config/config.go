package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Exercise struct {
		CacheTTL string `yaml:"cacheTtl"`
	} `yaml:"exercise"`
	Auth struct {
		JWTSecret     string `yaml:"jwtSecret"`
		TokenTTL      string `yaml:"tokenTtl"`
		ResetTokenTTL string `yaml:"resetTokenTtl"`
	} `yaml:"auth"`
	RateLimit map[string]LimitConfig `yaml:"ratelimit"`
}

// LimitConfig overrides one throttling scope.
type LimitConfig struct {
	Max    int    `yaml:"max"`
	Window string `yaml:"window"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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
