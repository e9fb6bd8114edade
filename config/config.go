package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDataFile is the student table read at startup, relative to the
// working directory.
const DefaultDataFile = "q-fastapi(1).csv"

// Config aggregates every runtime setting. Sources are applied in order:
// defaults, optional YAML file, environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	LogLevel  string          `yaml:"logLevel"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"` // gin mode: release, debug or test
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DataConfig points at the student table.
type DataConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig controls the optional response cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// RateLimitConfig limits requests to /api. A zero Limit disables it.
type RateLimitConfig struct {
	Limit float64 `yaml:"limit"` // requests per second
	Burst int     `yaml:"burst"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{Path: DefaultDataFile},
		Redis: RedisConfig{
			TTL:    5 * time.Minute,
			Prefix: "student-api",
		},
		RateLimit: RateLimitConfig{Burst: 1},
		LogLevel:  "info",
	}
}

// Load builds the configuration. path names an optional YAML file; when it
// is set the file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := env("PORT"); v != "" {
		addr, err := NormalizeAddr(v)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}
	if v := env("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := env("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS value: %q", v)
		}
		cfg.Server.ShutdownTimeout = time.Duration(n) * time.Second
	}
	if v := env("DATA_FILE"); v != "" {
		cfg.Data.Path = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := env("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v := env("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %q", v)
		}
		cfg.Redis.DB = n
	}
	if v := env("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL value: %q: %w", v, err)
		}
		cfg.Redis.TTL = d
	}
	if v := env("CACHE_PREFIX"); v != "" {
		cfg.Redis.Prefix = v
	}

	if v := env("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT value: %q", v)
		}
		cfg.RateLimit.Limit = f
	}
	if v := env("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST value: %q", v)
		}
		cfg.RateLimit.Burst = n
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// NormalizeAddr accepts "8080", ":8080" or "host:8080".
func NormalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return "", errors.New("empty listen address")
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.Path == "" {
		errs = append(errs, errors.New("data path must not be empty"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	switch c.Server.Mode {
	case "release", "debug", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown server mode %q", c.Server.Mode))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis db must not be negative, got %d", c.Redis.DB))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", c.Redis.TTL))
	}
	if c.RateLimit.Limit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit.Limit))
	}
	if c.RateLimit.Limit > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimit.Burst))
	}
	return errors.Join(errs...)
}
