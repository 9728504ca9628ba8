package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Browse   BrowseConfig      `yaml:"browse"`
	Themes   ThemesConfig      `yaml:"themes"`
	Security SecurityConfig    `yaml:"security"`
	Audit    AuditConfig       `yaml:"audit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Browse.Validate(); err != nil {
		return err
	}
	if err := c.Themes.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(c.App.Env); err != nil {
		return err
	}
	return c.Audit.Validate()
}

// ApplicationConfig holds application-level configuration.
//
// Env controls secret handling: in "production" a session secret is
// mandatory; in "development" an ephemeral one is generated (with a loud
// warning) when none is configured.
type ApplicationConfig struct {
	Env      string     `yaml:"env"`
	Debug    bool       `yaml:"debug"`
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In(EnvDevelopment, EnvProduction)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// BrowseConfig holds the boundary root and the default start directory.
// An empty Root means the current user's home directory, resolved at
// startup. StartDir is taken relative to Root unless absolute.
type BrowseConfig struct {
	Root     string `yaml:"root"`
	StartDir string `yaml:"start_dir"`
}

// Validate validates the browse configuration.
func (c *BrowseConfig) Validate() error {
	if c.StartDir == "" {
		c.StartDir = "Documents"
	}
	return nil
}

// ThemesConfig holds the theme directory path.
type ThemesConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the themes configuration.
func (c *ThemesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SecurityConfig holds the session-signing secret and rate-limit knobs.
type SecurityConfig struct {
	Secret            string `yaml:"secret"`
	RateLimit         int    `yaml:"rate_limit"`
	RateWindowSeconds int    `yaml:"rate_window_seconds"`
}

// Validate validates the security configuration for the given environment.
func (c *SecurityConfig) Validate(env string) error {
	if c.RateLimit == 0 {
		c.RateLimit = 100
	}
	if c.RateWindowSeconds == 0 {
		c.RateWindowSeconds = 60
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RateLimit, validation.Min(1)),
		validation.Field(&c.RateWindowSeconds, validation.Min(1)),
	); err != nil {
		return err
	}
	if env == EnvProduction && c.Secret == "" {
		return fmt.Errorf("security: env is %q but secret is empty", EnvProduction)
	}
	return nil
}

// AuditConfig holds the audit database path.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the audit configuration.
func (c *AuditConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Env:      EnvDevelopment,
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8080,
			},
		},
		Browse: BrowseConfig{
			StartDir: "Documents",
		},
		Themes: ThemesConfig{
			Dir: "./themes",
		},
		Security: SecurityConfig{
			RateLimit:         100,
			RateWindowSeconds: 60,
		},
		Audit: AuditConfig{
			Path: "./raido-audit.db",
		},
	}
}
