package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if len(cfg.Sources) != len(DefaultSources) {
		t.Errorf("expected %d default sources, got %d", len(DefaultSources), len(cfg.Sources))
	}
	if cfg.WorkersPerSource != 50 {
		t.Errorf("expected default workers per source 50, got %d", cfg.WorkersPerSource)
	}
	if cfg.ChunkSize != 2*1024*1024 {
		t.Errorf("expected default chunk size 2MB, got %d", cfg.ChunkSize)
	}
	if cfg.ReportInterval != time.Second {
		t.Errorf("expected default report interval 1s, got %v", cfg.ReportInterval)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.RetryPause != 100*time.Millisecond {
		t.Errorf("expected default retry pause 100ms, got %v", cfg.RetryPause)
	}
	if cfg.GracePeriod < cfg.Timeout {
		t.Errorf("default grace period %v shorter than timeout %v", cfg.GracePeriod, cfg.Timeout)
	}
	if !cfg.ForceClose {
		t.Error("expected force close by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultSourcesNotShared(t *testing.T) {
	cfg := Default()
	cfg.Sources[0] = "http://changed.example/"
	if DefaultSources[0] == "http://changed.example/" {
		t.Error("Default must copy DefaultSources")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
sources:
  - http://a.example/100MB.bin
  - http://b.example/100MB.bin
workers_per_source: 8
chunk_size: 64KB
report_interval: 0.5
timeout: 20s
retry_pause: 250ms
grace_period: 25s
http2: true
force_close: false
log_level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if len(cfg.Sources) != 2 || cfg.Sources[1] != "http://b.example/100MB.bin" {
		t.Errorf("unexpected sources %v", cfg.Sources)
	}
	if cfg.WorkersPerSource != 8 {
		t.Errorf("expected workers per source 8, got %d", cfg.WorkersPerSource)
	}
	if cfg.ChunkSize != 64*1024 {
		t.Errorf("expected chunk size 64KB, got %d", cfg.ChunkSize)
	}
	if cfg.ReportInterval != 500*time.Millisecond {
		t.Errorf("expected report interval 500ms, got %v", cfg.ReportInterval)
	}
	if cfg.Timeout != 20*time.Second {
		t.Errorf("expected timeout 20s, got %v", cfg.Timeout)
	}
	if cfg.RetryPause != 250*time.Millisecond {
		t.Errorf("expected retry pause 250ms, got %v", cfg.RetryPause)
	}
	if cfg.GracePeriod != 25*time.Second {
		t.Errorf("expected grace period 25s, got %v", cfg.GracePeriod)
	}
	if !cfg.HTTP2 {
		t.Error("expected http2 true")
	}
	if cfg.ForceClose {
		t.Error("expected force_close false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestLoadFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "workers_per_source: 4\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(cfg.Sources) != len(DefaultSources) {
		t.Errorf("expected default sources, got %v", cfg.Sources)
	}
	if !cfg.ForceClose {
		t.Error("expected force_close default to be kept")
	}
}

func TestLoadFromYAMLEmptySources(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "sources: []\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(cfg.Sources) != 0 {
		t.Fatalf("expected explicit empty sources, got %v", cfg.Sources)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty sources")
	}
}

func TestLoadFromYAMLBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"chunk size", "chunk_size: lots\n"},
		{"report interval", "report_interval: soon\n"},
		{"negative report interval", "report_interval: -1\n"},
		{"timeout", "timeout: 10\n"},
		{"retry pause", "retry_pause: x\n"},
		{"grace period", "grace_period: forever\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, tt.content)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SATURATOR_SOURCES", "http://a.example/x, http://b.example/y")
	t.Setenv("SATURATOR_WORKERS_PER_SOURCE", "12")
	t.Setenv("SATURATOR_CHUNK_SIZE", "1MB")
	t.Setenv("SATURATOR_REPORT_INTERVAL", "2")
	t.Setenv("SATURATOR_TIMEOUT", "15s")
	t.Setenv("SATURATOR_RETRY_PAUSE", "50ms")
	t.Setenv("SATURATOR_GRACE_PERIOD", "20s")
	t.Setenv("SATURATOR_HTTP2", "1")
	t.Setenv("SATURATOR_FORCE_CLOSE", "false")
	t.Setenv("SATURATOR_LOG_LEVEL", "error")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if len(cfg.Sources) != 2 || cfg.Sources[0] != "http://a.example/x" || cfg.Sources[1] != "http://b.example/y" {
		t.Errorf("unexpected sources %v", cfg.Sources)
	}
	if cfg.WorkersPerSource != 12 {
		t.Errorf("expected workers per source 12, got %d", cfg.WorkersPerSource)
	}
	if cfg.ChunkSize != 1024*1024 {
		t.Errorf("expected chunk size 1MB, got %d", cfg.ChunkSize)
	}
	if cfg.ReportInterval != 2*time.Second {
		t.Errorf("expected report interval 2s, got %v", cfg.ReportInterval)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected timeout 15s, got %v", cfg.Timeout)
	}
	if cfg.RetryPause != 50*time.Millisecond {
		t.Errorf("expected retry pause 50ms, got %v", cfg.RetryPause)
	}
	if cfg.GracePeriod != 20*time.Second {
		t.Errorf("expected grace period 20s, got %v", cfg.GracePeriod)
	}
	if !cfg.HTTP2 {
		t.Error("expected http2 true")
	}
	if cfg.ForceClose {
		t.Error("expected force close false")
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected log level error, got %s", cfg.LogLevel)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SATURATOR_WORKERS_PER_SOURCE", "many"},
		{"SATURATOR_CHUNK_SIZE", "big"},
		{"SATURATOR_REPORT_INTERVAL", "0"},
		{"SATURATOR_TIMEOUT", "never"},
		{"SATURATOR_RETRY_PAUSE", "short"},
		{"SATURATOR_GRACE_PERIOD", "long"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Default()
			if err := cfg.LoadFromEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Sources:          []string{"https://example.com/100MB.bin"},
			WorkersPerSource: 2,
			ChunkSize:        1024,
			ReportInterval:   time.Second,
			Timeout:          10 * time.Second,
			RetryPause:       100 * time.Millisecond,
			GracePeriod:      10 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"zero retry pause", func(c *Config) { c.RetryPause = 0 }, false},
		{"no sources", func(c *Config) { c.Sources = nil }, true},
		{"blank source", func(c *Config) { c.Sources = []string{" "} }, true},
		{"zero workers", func(c *Config) { c.WorkersPerSource = 0 }, true},
		{"negative workers", func(c *Config) { c.WorkersPerSource = -3 }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"huge chunk size", func(c *Config) { c.ChunkSize = MaxChunkSize + 1 }, true},
		{"zero interval", func(c *Config) { c.ReportInterval = 0 }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative retry pause", func(c *Config) { c.RetryPause = -time.Second }, true},
		{"grace shorter than timeout", func(c *Config) { c.GracePeriod = 5 * time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Sources = []string{"http://base.example/"}

	override := Config{
		WorkersPerSource: 3,
		Timeout:          30 * time.Second,
		HTTP2:            true,
	}

	merged := base.Merge(override)

	if len(merged.Sources) != 1 || merged.Sources[0] != "http://base.example/" {
		t.Errorf("expected sources preserved, got %v", merged.Sources)
	}
	if merged.ChunkSize != base.ChunkSize {
		t.Errorf("expected chunk size preserved, got %d", merged.ChunkSize)
	}
	if merged.WorkersPerSource != 3 {
		t.Errorf("expected workers overridden to 3, got %d", merged.WorkersPerSource)
	}
	if merged.Timeout != 30*time.Second {
		t.Errorf("expected timeout overridden to 30s, got %v", merged.Timeout)
	}
	if !merged.HTTP2 {
		t.Error("expected http2 overridden")
	}

	merged = base.Merge(Config{Sources: []string{"http://a/", "http://b/"}})
	if len(merged.Sources) != 2 {
		t.Errorf("expected sources overridden, got %v", merged.Sources)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"1", time.Second, false},
		{"0.25", 250 * time.Millisecond, false},
		{" 2.5 ", 2500 * time.Millisecond, false},
		{"750ms", 750 * time.Millisecond, false},
		{"1m", time.Minute, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"-1s", 0, true},
		{"often", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInterval(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInterval(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("a, b,,c\td")
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := SplitList(" , "); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
