// Package config resolves directories and settings from the XDG config dir,
// an optional config.yaml, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "protasker"

	// FileName is the optional settings file inside the config dir.
	FileName = "config.yaml"

	// DefaultAPIURL is the hosted Pro-Tasker API, including the /api base path.
	DefaultAPIURL = "https://pro-tasker-backend-llnd.onrender.com/api"

	// DefaultTimeout bounds every API request.
	DefaultTimeout = 8 * time.Second
)

// Config holds paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-"`

	APIURL    string        `yaml:"api_url"`
	WebURL    string        `yaml:"web_url"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`

	// Debug forces debug logging regardless of LogLevel.
	Debug bool `yaml:"-"`
}

// Load builds a Config for configDir (or the default dir when empty),
// applying config.yaml and then PROTASKER_* environment variables.
func Load(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:       dir,
		APIURL:    DefaultAPIURL,
		Timeout:   DefaultTimeout,
		LogLevel:  "info",
		LogFormat: "json",
	}

	data, err := os.ReadFile(cfg.FilePath())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", cfg.FilePath(), err)
		}
	}

	if v := os.Getenv("PROTASKER_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("PROTASKER_WEB_URL"); v != "" {
		cfg.WebURL = v
	}
	if v := os.Getenv("PROTASKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config.Load: PROTASKER_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.WebURL = strings.TrimRight(cfg.WebURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/protasker or ~/.config/protasker.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the config.yaml path.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, FileName)
}

// DataDir holds the persisted session and preferences.
func (c *Config) DataDir() string {
	return filepath.Join(c.Dir, "data")
}

// LogPath is where the TUI writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, AppName+".log")
}

// ProjectWebURL returns the web app page for a project, or "" when WebURL is unset.
func (c *Config) ProjectWebURL(projectID string) string {
	if c.WebURL == "" {
		return ""
	}
	return c.WebURL + "/projects/" + url.PathEscape(projectID)
}
