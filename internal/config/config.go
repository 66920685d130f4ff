// internal/config/config.go
//
// Configuration for the onboarding console. Each user gets a .onboard/
// directory holding config.yaml and the session logs; ONBOARD_* environment
// variables override anything in the file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// OnboardDir is the name of the directory created under the base directory.
const OnboardDir = ".onboard"

const (
	defaultBaseURL        = "http://127.0.0.1:8080"
	defaultTimeoutSeconds = 15
)

const defaultConsoleConfigYAML = `# onboard console configuration
version: 1

api:
  # Base URL of the employee API, including any mount prefix.
  base_url: http://127.0.0.1:8080
  # Per-request timeout in seconds. Expiry is reported as a network failure.
  timeout_seconds: 15

# Set true to keep DEBUG entries in the session log.
debug: false
`

// APIConfig locates the employee API boundary.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" env:"ONBOARD_API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"ONBOARD_API_TIMEOUT"`
}

// ConsoleConfig models .onboard/config.yaml.
type ConsoleConfig struct {
	Version int       `yaml:"version"`
	API     APIConfig `yaml:"api"`
	LogPath string    `yaml:"log_path,omitempty" env:"ONBOARD_LOG_PATH"`
	Debug   bool      `yaml:"debug" env:"ONBOARD_DEBUG"`
}

// Config holds the runtime configuration for the console.
type Config struct {
	// BaseDir is the directory the console was started for.
	BaseDir string

	// OnboardPath is BaseDir/.onboard.
	OnboardPath string

	Console ConsoleConfig
}

// InitOnboardDir creates the .onboard directory structure and a default
// config.yaml when none exists. Called once at startup.
func InitOnboardDir(baseDir string) error {
	onboardPath := filepath.Join(baseDir, OnboardDir)
	for _, dir := range []string{
		filepath.Join(onboardPath, "logs"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConsoleConfig(filepath.Join(onboardPath, "config.yaml"))
}

// Load builds a Config from defaults, the yaml file (when present), and
// environment overrides, in that order.
func Load(baseDir string) (*Config, error) {
	cfg := &Config{
		BaseDir:     baseDir,
		OnboardPath: filepath.Join(baseDir, OnboardDir),
		Console:     defaultConsoleConfig(),
	}
	if err := cfg.loadConsoleConfig(); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg.Console); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.Console.normalize()
	if err := cfg.Console.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.OnboardPath, "config.yaml")
}

// LogPath returns the session log location, defaulting to
// .onboard/logs/session.log under the base directory.
func (c *Config) LogPath() string {
	if c.Console.LogPath != "" {
		return c.Console.LogPath
	}
	return filepath.Join(c.OnboardPath, "logs", "session.log")
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return c.Console.API.BaseURL
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Console.API.TimeoutSeconds) * time.Second
}

func (c *Config) loadConsoleConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed ConsoleConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Console = parsed
	return nil
}

func defaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		Version: 1,
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
	}
}

func (cc *ConsoleConfig) applyDefaults() {
	if cc.Version == 0 {
		cc.Version = 1
	}
	if strings.TrimSpace(cc.API.BaseURL) == "" {
		cc.API.BaseURL = defaultBaseURL
	}
	if cc.API.TimeoutSeconds == 0 {
		cc.API.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (cc *ConsoleConfig) normalize() {
	cc.API.BaseURL = strings.TrimRight(strings.TrimSpace(cc.API.BaseURL), "/")
	cc.LogPath = strings.TrimSpace(cc.LogPath)
}

func (cc ConsoleConfig) validate() error {
	if cc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if cc.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(cc.API.BaseURL, "http://") && !strings.HasPrefix(cc.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if cc.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must not be negative")
	}
	return nil
}

func ensureConsoleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConsoleConfigYAML), 0o644)
}
