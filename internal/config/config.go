package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "OGCTZ"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Site      SiteConfig      `yaml:"site"`
	Render    RenderConfig    `yaml:"render"`
	Paths     PathsConfig     `yaml:"paths"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
}

// SessionConfig controls the session cookie and the flash store.
// SecretKey also answers to the bare SECRET_KEY variable.
type SessionConfig struct {
	SecretKey     string        `yaml:"secret_key" envconfig:"SECRET_KEY"`
	CookieName    string        `yaml:"cookie_name" split_words:"true"`
	CookieSecure  bool          `yaml:"cookie_secure" split_words:"true"`
	CookieMaxAge  time.Duration `yaml:"cookie_max_age" split_words:"true"`
	FlashTTL      time.Duration `yaml:"flash_ttl" split_words:"true"`
	SweepInterval time.Duration `yaml:"sweep_interval" split_words:"true"`
}

// SiteConfig holds the site-wide values injected into every page
type SiteConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Location string `yaml:"location"`
	Founded  string `yaml:"founded"`
}

// RenderConfig contains template rendering options
type RenderConfig struct {
	Minify       bool `yaml:"minify"`
	Reload       bool `yaml:"reload"`
	ExposeErrors bool `yaml:"expose_errors" split_words:"true"`
}

// PathsConfig contains the template and static roots.
// Empty roots select the assets embedded in the binary.
type PathsConfig struct {
	BaseDir     string `yaml:"base_dir" split_words:"true"`
	TemplateDir string `yaml:"template_dir" split_words:"true"`
	StaticDir   string `yaml:"static_dir" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true"`
	MetricExporter string  `yaml:"metric_exporter" split_words:"true"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. An empty path searches the
// well-known locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable are left untouched, so no default
	// tags are declared: they would clobber the file values.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document at path onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in the common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Validate checks the configuration and normalises enumerated values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return errors.New("server write timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}

	if c.Session.SecretKey == "" {
		return errors.New("session secret key must not be empty")
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie name must not be empty")
	}
	if c.Session.CookieMaxAge < 0 {
		return errors.New("session cookie max age must not be negative")
	}
	if c.Session.FlashTTL <= 0 {
		return errors.New("flash ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("flash sweep interval must be positive")
	}

	if c.Site.Name == "" {
		return errors.New("site name must not be empty")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	c.Logging.Output = strings.ToLower(c.Logging.Output)
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "none":
	default:
		return fmt.Errorf("unsupported metric exporter: %q", c.Telemetry.MetricExporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("sample ratio out of range: %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// UsesDefaultSecret reports whether the built-in development secret is active
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.SecretKey == DefaultSecretKey
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Session: SessionConfig{
			SecretKey:     DefaultSecretKey,
			CookieName:    DefaultCookieName,
			CookieMaxAge:  DefaultCookieMaxAge,
			FlashTTL:      DefaultFlashTTL,
			SweepInterval: DefaultSweepInterval,
		},
		Site: SiteConfig{
			Name:     DefaultSiteName,
			Email:    DefaultSiteEmail,
			Phone:    DefaultSitePhone,
			Location: DefaultSiteLocation,
			Founded:  DefaultSiteFounded,
		},
		Render: RenderConfig{
			Minify: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
