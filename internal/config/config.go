// Package config loads the service configuration from YAML, .env and
// BULKVERIFY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BULKVERIFY_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	DNS      DNSConfig      `yaml:"dns"`
	Cache    CacheConfig    `yaml:"cache"`
	Domains  DomainsConfig  `yaml:"domains"`
}

type ServerConfig struct {
	Host                   string   `yaml:"host"`
	Port                   int      `yaml:"port"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
	MaxBodyBytes           int64    `yaml:"max_body_bytes"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PipelineConfig struct {
	BatchLimit    int `yaml:"batch_limit"`
	StreamLimit   int `yaml:"stream_limit"`
	BatchWindow   int `yaml:"batch_window"`
	StreamWindow  int `yaml:"stream_window"`
	StreamDelayMS int `yaml:"stream_delay_ms"`
}

func (c PipelineConfig) StreamDelay() time.Duration {
	return time.Duration(c.StreamDelayMS) * time.Millisecond
}

type DNSConfig struct {
	TimeoutMS     int      `yaml:"timeout_ms"`
	Attempts      int      `yaml:"attempts"`
	BaseDelayMS   int      `yaml:"base_delay_ms"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	QPS           float64  `yaml:"qps"`
	Burst         int      `yaml:"burst"`
	Servers       []string `yaml:"servers"`
}

func (c DNSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c DNSConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

type CacheConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisURL   string `yaml:"redis_url"`
	KeyPrefix  string `yaml:"key_prefix"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type DomainsConfig struct {
	DisposableFile string `yaml:"disposable_file"`
	TypoThreshold  int    `yaml:"typo_threshold"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file in the working directory is read first, if present, and
// never overrides variables that are already set. The result is validated.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 15
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 4 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Pipeline.BatchLimit == 0 {
		c.Pipeline.BatchLimit = 10000
	}
	if c.Pipeline.StreamLimit == 0 {
		c.Pipeline.StreamLimit = 1000
	}
	if c.Pipeline.BatchWindow == 0 {
		c.Pipeline.BatchWindow = 100
	}
	if c.Pipeline.StreamWindow == 0 {
		c.Pipeline.StreamWindow = 50
	}
	if c.Pipeline.StreamDelayMS == 0 {
		c.Pipeline.StreamDelayMS = 10
	}
	if c.DNS.TimeoutMS == 0 {
		c.DNS.TimeoutMS = 5000
	}
	if c.DNS.Attempts == 0 {
		c.DNS.Attempts = 3
	}
	if c.DNS.BaseDelayMS == 0 {
		c.DNS.BaseDelayMS = 1000
	}
	if c.DNS.MaxConcurrent == 0 {
		c.DNS.MaxConcurrent = 256
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "bulkverify:domain:"
	}
	if c.Domains.TypoThreshold == 0 {
		c.Domains.TypoThreshold = 2
	}
}

// applyEnv overrides file values with BULKVERIFY_* variables.
func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	list("ALLOWED_ORIGINS", &c.Server.AllowedOrigins)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	num("BATCH_WINDOW", &c.Pipeline.BatchWindow)
	num("STREAM_WINDOW", &c.Pipeline.StreamWindow)
	num("STREAM_DELAY_MS", &c.Pipeline.StreamDelayMS)
	num("DNS_TIMEOUT_MS", &c.DNS.TimeoutMS)
	num("DNS_MAX_CONCURRENT", &c.DNS.MaxConcurrent)
	list("DNS_SERVERS", &c.DNS.Servers)
	num("CACHE_TTL_SECONDS", &c.Cache.TTLSeconds)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("DISPOSABLE_FILE", &c.Domains.DisposableFile)

	if v := os.Getenv(EnvPrefix + "DNS_QPS"); v != "" {
		qps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDNS_QPS: %w", EnvPrefix, err))
		} else {
			c.DNS.QPS = qps
		}
	}
	return errors.Join(errs...)
}

// Validate checks ranges that the defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		fail("server.port %d out of range", c.Server.Port)
	}
	if c.Pipeline.BatchLimit < 1 || c.Pipeline.StreamLimit < 1 {
		fail("pipeline limits must be positive")
	}
	if c.Pipeline.BatchWindow < 1 || c.Pipeline.BatchWindow > c.Pipeline.BatchLimit {
		fail("pipeline.batch_window %d must be between 1 and batch_limit", c.Pipeline.BatchWindow)
	}
	if c.Pipeline.StreamWindow < 1 || c.Pipeline.StreamWindow > c.Pipeline.StreamLimit {
		fail("pipeline.stream_window %d must be between 1 and stream_limit", c.Pipeline.StreamWindow)
	}
	if c.Pipeline.StreamDelayMS < 5 || c.Pipeline.StreamDelayMS > 50 {
		fail("pipeline.stream_delay_ms %d must be between 5 and 50", c.Pipeline.StreamDelayMS)
	}
	if c.DNS.TimeoutMS < 1 || c.DNS.Attempts < 1 || c.DNS.BaseDelayMS < 0 {
		fail("dns timeout and attempts must be positive")
	}
	if c.DNS.MaxConcurrent < 1 {
		fail("dns.max_concurrent must be positive")
	}
	if c.DNS.QPS < 0 {
		fail("dns.qps must not be negative")
	}
	if c.Cache.TTLSeconds < 1 {
		fail("cache.ttl_seconds must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		fail("log.format %q must be text or json", c.Log.Format)
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
