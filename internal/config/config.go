package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/livetemplate/lessonview"
)

// FileName is the configuration file looked up by LoadFromDir.
const FileName = "lessonview.yaml"

// Config represents the lessonview configuration
type Config struct {
	Title     string          `yaml:"title"`
	Lessons   string          `yaml:"lessons"` // Lesson document path, relative to the config directory
	Server    ServerConfig    `yaml:"server"`
	Styling   StylingConfig   `yaml:"styling"`
	Features  FeaturesConfig  `yaml:"features"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// StylingConfig holds styling-related configuration
type StylingConfig struct {
	Theme string `yaml:"theme"` // Default theme for new visitors: "dark" or "light"
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `yaml:"file,omitempty"` // JSON log file, rotated. Console only when empty
	Production bool   `yaml:"production"`     // Info level and above only
}

// RateLimitConfig throttles HTTP requests per client address and table
// actions per websocket connection with the same rate and burst.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 10)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 20)
	MaxTrackedIPs     int     `yaml:"max_tracked_ips,omitempty"`     // Distinct IPs tracked before LRU eviction (default: 10000)
}

// SessionConfig holds learner session configuration
type SessionConfig struct {
	TTL string `yaml:"ttl,omitempty"` // How long table progress outlives a closed tab (e.g., "1h"). Default: 1h
}

// GetRequestsPerSecond returns the rate limit in requests per second (default: 10)
func (c RateLimitConfig) GetRequestsPerSecond() float64 {
	if c.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RequestsPerSecond
}

// GetBurst returns the burst size (default: 20)
func (c RateLimitConfig) GetBurst() int {
	if c.Burst <= 0 {
		return 20
	}
	return c.Burst
}

// GetMaxTrackedIPs returns the number of IPs tracked by the limiter (default: 10000)
func (c RateLimitConfig) GetMaxTrackedIPs() int {
	if c.MaxTrackedIPs <= 0 {
		return 10000
	}
	return c.MaxTrackedIPs
}

// GetTTL returns the parsed session TTL (default: 1h)
func (c SessionConfig) GetTTL() time.Duration {
	if c.TTL == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// GetTheme returns the configured default theme (default: dark)
func (c StylingConfig) GetTheme() lessonview.Theme {
	theme, err := lessonview.ParseTheme(c.Theme)
	if err != nil {
		return lessonview.ThemeDark
	}
	return theme
}

// Addr returns host:port for the HTTP listener
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title:   "Pali Course",
		Lessons: "lessons.json",
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Styling: StylingConfig{
			Theme: string(lessonview.ThemeDark),
		},
		Features: FeaturesConfig{
			HotReload: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Session: SessionConfig{
			TTL: "1h",
		},
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Styling.Theme != "" {
		if _, err := lessonview.ParseTheme(c.Styling.Theme); err != nil {
			return fmt.Errorf("styling.theme: %w", err)
		}
	}
	if c.Session.TTL != "" {
		if _, err := time.ParseDuration(c.Session.TTL); err != nil {
			return fmt.Errorf("session.ttl: %w", err)
		}
	}
	return nil
}

// LessonsPath resolves the lesson document path against dir.
func (c *Config) LessonsPath(dir string) string {
	if filepath.IsAbs(c.Lessons) {
		return c.Lessons
	}
	return filepath.Join(dir, c.Lessons)
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	// If no config path provided, use default
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// LoadFromDir looks for lessonview.yaml (or lessonview.yml) in the given
// directory. If none is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return Load(filepath.Join(dir, "lessonview.yml"))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
