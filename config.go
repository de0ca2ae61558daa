package redline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the redline configuration.
type Config struct {
	Limits              `yaml:",inline"`
	Style               StyleMode   `yaml:"style"`
	Author              string      `yaml:"author"`
	MaxMatches          int         `yaml:"max_matches"`
	ProtectedAttributes []string    `yaml:"protected_attributes"`
	Redis               RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis state store.
type RedisConfig struct {
	URL        string `yaml:"url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// TTL returns the configured expiry, zero meaning none.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// DefaultAuthor is recorded on generated suggestions when no author is configured.
const DefaultAuthor = "AI"

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits:              DefaultLimits(),
		Style:               DefaultStyle,
		Author:              DefaultAuthor,
		MaxMatches:          DefaultMaxMatches,
		ProtectedAttributes: []string{AttrBold},
		Redis: RedisConfig{
			KeyPrefix: "redline:",
		},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Min < 0 {
		return fmt.Errorf("min_section_length must be >= 0")
	}
	if c.Max > 0 && c.Max < c.Min {
		return fmt.Errorf("max_section_length (%d) must be >= min_section_length (%d)", c.Max, c.Min)
	}
	if _, err := ParseStyle(string(c.Style)); err != nil {
		return err
	}
	if c.MaxMatches < 0 {
		return fmt.Errorf("max_matches must be >= 0")
	}
	if c.Redis.TTLSeconds < 0 {
		return fmt.Errorf("redis.ttl_seconds must be >= 0")
	}
	return nil
}
