package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix namespaces every configuration variable, e.g. STATS_PORT
	EnvPrefix = "STATS_"
	// FileEnv names the optional YAML configuration file
	FileEnv = "STATS_CONFIG"
)

type Config struct {
	// Server
	Port     int    `koanf:"port"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	// CORS
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Database URLs
	PostgresURL   string `koanf:"postgres_url"`
	ClickHouseURL string `koanf:"clickhouse_url"`
	RedisURL      string `koanf:"redis_url"`

	// Worker pool
	WorkerCount   int           `koanf:"worker_count"`
	QueueSize     int           `koanf:"queue_size"`
	BatchSize     int           `koanf:"batch_size"`
	FlushInterval time.Duration `koanf:"flush_interval"`

	// HTTP
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// Collation locale for player name ordering (BCP 47)
	Collation string `koanf:"collation"`
}

// Defaults returns the configuration used when nothing overrides a key
func Defaults() *Config {
	return &Config{
		Port:     8080,
		Env:      "development",
		LogLevel: "info",

		AllowedOrigins: []string{"http://localhost:3000"},

		WorkerCount:   8,
		QueueSize:     10000,
		BatchSize:     500,
		FlushInterval: time.Second,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,

		Collation: "en",
	}
}

// Load layers defaults, the optional YAML file named by STATS_CONFIG and
// STATS_* environment variables, in increasing precedence.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// STATS_CLICKHOUSE_URL -> clickhouse_url
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)

	// Critical configuration - fail if missing
	required := []struct {
		key   string
		value string
	}{
		{"postgres_url", cfg.PostgresURL},
		{"clickhouse_url", cfg.ClickHouseURL},
		{"redis_url", cfg.RedisURL},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required configuration: %s", r.key)
		}
	}

	return cfg, nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// trimAll accepts both YAML lists and comma separated env values
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
