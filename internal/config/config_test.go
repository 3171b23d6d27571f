package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/imgshelf/imgshelf/internal/constants"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.PageSize != constants.DefaultPageSize {
		t.Errorf("expected default PageSize %d, got %d", constants.DefaultPageSize, cfg.PageSize)
	}
	if cfg.UploadCeilingBytes != 5*1024*1024 {
		t.Errorf("expected 5 MiB ceiling, got %d", cfg.UploadCeilingBytes)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("expected default proxy mode no-proxy, got %s", cfg.ProxyMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIBaseURL != constants.DefaultAPIBaseURL {
		t.Errorf("expected default base URL, got %s", cfg.APIBaseURL)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "config")

	cfg := NewConfig()
	cfg.APIBaseURL = "https://api.test/prod"
	cfg.Timeout = 90 * time.Second
	cfg.RetryMax = 5
	cfg.Username = "alice"
	cfg.Token = "tok-123"
	cfg.PageSize = 50
	cfg.UploadCeilingBytes = 1024
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.corp"
	cfg.ProxyPort = 3128
	cfg.ProxyUser = "bob"
	cfg.ProxyPassword = "secret"
	cfg.NoProxy = "localhost"

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL mismatch: %s vs %s", loaded.APIBaseURL, cfg.APIBaseURL)
	}
	if loaded.Timeout != cfg.Timeout {
		t.Errorf("Timeout mismatch: %v vs %v", loaded.Timeout, cfg.Timeout)
	}
	if loaded.RetryMax != 5 || loaded.PageSize != 50 || loaded.UploadCeilingBytes != 1024 {
		t.Errorf("numeric settings not round-tripped: %+v", loaded)
	}
	if loaded.Username != "alice" || loaded.Token != "tok-123" {
		t.Errorf("session not round-tripped: %s/%s", loaded.Username, loaded.Token)
	}
	if loaded.ProxyMode != "basic" || loaded.ProxyHost != "proxy.corp" || loaded.ProxyPort != 3128 {
		t.Errorf("proxy not round-tripped: %+v", loaded)
	}
	if loaded.ProxyPassword != "" {
		t.Error("proxy password must not be persisted")
	}
}

func TestMergePriority(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.test")
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvPageSize, "30")

	cfg := NewConfig()
	cfg.MergeEnv()

	if cfg.APIBaseURL != "https://env.test" || cfg.Token != "env-token" || cfg.PageSize != 30 {
		t.Fatalf("env not applied: %+v", cfg)
	}

	cfg.MergeWithFlags("https://flag.test", "", 0)

	if cfg.APIBaseURL != "https://flag.test" {
		t.Errorf("flag should override env, got %s", cfg.APIBaseURL)
	}
	if cfg.Token != "env-token" {
		t.Errorf("empty flag should keep env token, got %s", cfg.Token)
	}
	if cfg.PageSize != 30 {
		t.Errorf("zero flag should keep page size, got %d", cfg.PageSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty url", func(c *Config) { c.APIBaseURL = "  " }, ErrMissingBaseURL},
		{"zero page", func(c *Config) { c.PageSize = 0 }, ErrInvalidPageSize},
		{"huge page", func(c *Config) { c.PageSize = constants.MaxPageSize + 1 }, ErrInvalidPageSize},
		{"zero ceiling", func(c *Config) { c.UploadCeilingBytes = 0 }, ErrInvalidCeiling},
		{"negative retries", func(c *Config) { c.RetryMax = -1 }, ErrInvalidRetryMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRequireTokenAndClearSession(t *testing.T) {
	cfg := NewConfig()
	if !errors.Is(cfg.RequireToken(), ErrNotLoggedIn) {
		t.Error("expected ErrNotLoggedIn without a token")
	}

	cfg.Username = "alice"
	cfg.Token = "t"
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.ClearSession()
	if cfg.Token != "" || cfg.Username != "" {
		t.Error("ClearSession should wipe username and token")
	}
}
