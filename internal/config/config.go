package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ligustah/saturator/internal/progress"
	"gopkg.in/yaml.v3"
)

// MaxChunkSize caps the per-worker read buffer.
const MaxChunkSize = 1024 * 1024 * 1024

// DefaultSources are public speed-test endpoints used when no source is
// configured.
var DefaultSources = []string{
	"https://speed.cloudflare.com/__down?bytes=104857600",
	"https://speed.cloudflare.com/__down?bytes=209715200",
	"https://proof.ovh.net/files/100Mb.dat",
	"https://speedtest.tele2.net/100MB.zip",
	"https://ash-speed.hetzner.com/100MB.bin",
}

// Config defines configuration for the saturator CLI.
type Config struct {
	Sources          []string      `yaml:"sources"`
	WorkersPerSource int           `yaml:"workers_per_source"`
	ChunkSize        int64         `yaml:"chunk_size"`
	ReportInterval   time.Duration `yaml:"report_interval"`
	Timeout          time.Duration `yaml:"timeout"`
	RetryPause       time.Duration `yaml:"retry_pause"`
	GracePeriod      time.Duration `yaml:"grace_period"`
	HTTP2            bool          `yaml:"http2"`
	ForceClose       bool          `yaml:"force_close"`
	LogLevel         string        `yaml:"log_level"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Sources:          append([]string(nil), DefaultSources...),
		WorkersPerSource: 50,
		ChunkSize:        2 * 1024 * 1024, // 2MB
		ReportInterval:   time.Second,
		Timeout:          10 * time.Second,
		RetryPause:       100 * time.Millisecond,
		GracePeriod:      10 * time.Second,
		ForceClose:       true,
		LogLevel:         "warn",
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	Sources          []string `yaml:"sources"`
	WorkersPerSource int      `yaml:"workers_per_source"`
	ChunkSize        string   `yaml:"chunk_size"`
	ReportInterval   string   `yaml:"report_interval"`
	Timeout          string   `yaml:"timeout"`
	RetryPause       string   `yaml:"retry_pause"`
	GracePeriod      string   `yaml:"grace_period"`
	HTTP2            *bool    `yaml:"http2"`
	ForceClose       *bool    `yaml:"force_close"`
	LogLevel         string   `yaml:"log_level"`
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their defaults. An explicit empty sources list is kept as is and
// rejected by Validate.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Sources != nil {
		cfg.Sources = yc.Sources
	}
	if yc.WorkersPerSource != 0 {
		cfg.WorkersPerSource = yc.WorkersPerSource
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if yc.ReportInterval != "" {
		d, err := ParseInterval(yc.ReportInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse report_interval: %w", err)
		}
		cfg.ReportInterval = d
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.RetryPause != "" {
		d, err := time.ParseDuration(yc.RetryPause)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_pause: %w", err)
		}
		cfg.RetryPause = d
	}
	if yc.GracePeriod != "" {
		d, err := time.ParseDuration(yc.GracePeriod)
		if err != nil {
			return Config{}, fmt.Errorf("parse grace_period: %w", err)
		}
		cfg.GracePeriod = d
	}
	if yc.HTTP2 != nil {
		cfg.HTTP2 = *yc.HTTP2
	}
	if yc.ForceClose != nil {
		cfg.ForceClose = *yc.ForceClose
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SATURATOR_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SATURATOR_SOURCES"); v != "" {
		c.Sources = SplitList(v)
	}
	if v := os.Getenv("SATURATOR_WORKERS_PER_SOURCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_WORKERS_PER_SOURCE: %w", err)
		}
		c.WorkersPerSource = n
	}
	if v := os.Getenv("SATURATOR_CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = size
	}
	if v := os.Getenv("SATURATOR_REPORT_INTERVAL"); v != "" {
		d, err := ParseInterval(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_REPORT_INTERVAL: %w", err)
		}
		c.ReportInterval = d
	}
	if v := os.Getenv("SATURATOR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SATURATOR_RETRY_PAUSE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_RETRY_PAUSE: %w", err)
		}
		c.RetryPause = d
	}
	if v := os.Getenv("SATURATOR_GRACE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SATURATOR_GRACE_PERIOD: %w", err)
		}
		c.GracePeriod = d
	}
	if v := os.Getenv("SATURATOR_HTTP2"); v != "" {
		c.HTTP2 = v == "true" || v == "1"
	}
	if v := os.Getenv("SATURATOR_FORCE_CLOSE"); v != "" {
		c.ForceClose = v == "true" || v == "1"
	}
	if v := os.Getenv("SATURATOR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("config: at least one source is required")
	}
	for _, s := range c.Sources {
		if strings.TrimSpace(s) == "" {
			return errors.New("config: sources must not be empty")
		}
	}
	if c.WorkersPerSource <= 0 {
		return errors.New("config: workers_per_source must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.ChunkSize > MaxChunkSize {
		return errors.New("config: chunk_size must not exceed 1GB")
	}
	if c.ReportInterval <= 0 {
		return errors.New("config: report_interval must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.RetryPause < 0 {
		return errors.New("config: retry_pause must not be negative")
	}
	if c.GracePeriod < c.Timeout {
		return errors.New("config: grace_period must be at least timeout")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Sources != nil {
		c.Sources = override.Sources
	}
	if override.WorkersPerSource != 0 {
		c.WorkersPerSource = override.WorkersPerSource
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.ReportInterval != 0 {
		c.ReportInterval = override.ReportInterval
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.RetryPause != 0 {
		c.RetryPause = override.RetryPause
	}
	if override.GracePeriod != 0 {
		c.GracePeriod = override.GracePeriod
	}
	if override.HTTP2 {
		c.HTTP2 = override.HTTP2
	}
	if override.ForceClose {
		c.ForceClose = override.ForceClose
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	return c
}

// ParseInterval parses a report interval. A bare number is taken as
// seconds ("0.5"); anything else must be a Go duration ("500ms").
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("interval must be positive: %s", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval: %s", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive: %s", s)
	}
	return d, nil
}

// SplitList splits a comma or whitespace separated list, dropping empty
// entries.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if fields == nil {
		return []string{}
	}
	return fields
}
