// Package config provides configuration management for imgshelf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/imgshelf/imgshelf/internal/constants"
)

// Config is the full client configuration.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\imgshelf\config
//   - Unix: ~/.config/imgshelf/config
//
// INI format:
//
//	[server]
//	base_url = https://api.example.com/prod
//	timeout_seconds = 60
//	retry_max = 3
//
//	[session]
//	username = alice
//	token = <bearer token>
//
//	[browser]
//	page_size = 20
//	upload_ceiling_bytes = 5242880
//
//	[proxy]
//	mode = no-proxy
//	host = proxy.corp
//	port = 8080
//	user =
//	password =
//	no_proxy = localhost,*.internal
//	warmup = false
type Config struct {
	// Server settings
	APIBaseURL string
	Timeout    time.Duration
	RetryMax   int

	// Persisted session (written by login, cleared by logout)
	Username string
	Token    string

	// Browser settings
	PageSize           int
	UploadCeilingBytes int64

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool
}

// Environment variables consulted by MergeEnv
const (
	EnvAPIURL   = "IMGSHELF_API_URL"
	EnvToken    = "IMGSHELF_TOKEN"
	EnvPageSize = "IMGSHELF_PAGE_SIZE"
)

// Validation errors
var (
	ErrMissingBaseURL  = errors.New("base_url is required")
	ErrInvalidPageSize = fmt.Errorf("page_size must be between 1 and %d", constants.MaxPageSize)
	ErrInvalidCeiling  = errors.New("upload_ceiling_bytes must be positive")
	ErrInvalidRetryMax = errors.New("retry_max must not be negative")
	ErrNotLoggedIn     = errors.New("not logged in (run 'imgshelf login' or set " + EnvToken + ")")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:         constants.DefaultAPIBaseURL,
		Timeout:            constants.HTTPRequestTimeout,
		RetryMax:           constants.MaxRetries,
		PageSize:           constants.DefaultPageSize,
		UploadCeilingBytes: constants.UploadCeilingBytes,
		ProxyMode:          "no-proxy",
		ProxyPort:          constants.DefaultProxyPort,
	}
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "imgshelf")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "imgshelf")
	}

	return filepath.Join(configDir, "config"), nil
}

// LoadConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.APIBaseURL = server.Key("base_url").MustString(cfg.APIBaseURL)
	cfg.Timeout = time.Duration(server.Key("timeout_seconds").MustInt(int(cfg.Timeout/time.Second))) * time.Second
	cfg.RetryMax = server.Key("retry_max").MustInt(cfg.RetryMax)

	session := iniFile.Section("session")
	cfg.Username = session.Key("username").String()
	cfg.Token = session.Key("token").String()

	browser := iniFile.Section("browser")
	cfg.PageSize = browser.Key("page_size").MustInt(cfg.PageSize)
	cfg.UploadCeilingBytes = browser.Key("upload_ceiling_bytes").MustInt64(cfg.UploadCeilingBytes)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(cfg.ProxyPort)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.ProxyPassword = proxy.Key("password").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	return cfg, nil
}

// SaveConfig saves configuration to an INI file.
// Creates parent directories if they don't exist.
// The session token is stored in the file - ensure appropriate file permissions.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	sections := []struct {
		name string
		keys [][2]string
	}{
		{"server", [][2]string{
			{"base_url", cfg.APIBaseURL},
			{"timeout_seconds", strconv.Itoa(int(cfg.Timeout / time.Second))},
			{"retry_max", strconv.Itoa(cfg.RetryMax)},
		}},
		{"session", [][2]string{
			{"username", cfg.Username},
			{"token", cfg.Token},
		}},
		{"browser", [][2]string{
			{"page_size", strconv.Itoa(cfg.PageSize)},
			{"upload_ceiling_bytes", strconv.FormatInt(cfg.UploadCeilingBytes, 10)},
		}},
		{"proxy", [][2]string{
			{"mode", cfg.ProxyMode},
			{"host", cfg.ProxyHost},
			{"port", strconv.Itoa(cfg.ProxyPort)},
			{"user", cfg.ProxyUser},
			{"no_proxy", cfg.NoProxy},
			{"warmup", strconv.FormatBool(cfg.ProxyWarmup)},
		}},
	}

	for _, s := range sections {
		sec, err := iniFile.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.keys {
			sec.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Write to a temporary file and rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// MergeEnv applies environment overrides on top of file values.
func (cfg *Config) MergeEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
}

// MergeWithFlags applies command-line overrides. Zero values leave the
// current setting untouched.
// Priority: flags > environment > config file > defaults
func (cfg *Config) MergeWithFlags(apiURL, token string, pageSize int) {
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if token != "" {
		cfg.Token = token
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
}

// Validate checks the settings every command needs.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return ErrMissingBaseURL
	}
	if cfg.PageSize < 1 || cfg.PageSize > constants.MaxPageSize {
		return ErrInvalidPageSize
	}
	if cfg.UploadCeilingBytes < 1 {
		return ErrInvalidCeiling
	}
	if cfg.RetryMax < 0 {
		return ErrInvalidRetryMax
	}
	return nil
}

// RequireToken returns ErrNotLoggedIn when no session token is present.
func (cfg *Config) RequireToken() error {
	if strings.TrimSpace(cfg.Token) == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// ClearSession drops the persisted session.
func (cfg *Config) ClearSession() {
	cfg.Username = ""
	cfg.Token = ""
}
