package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/tool"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Collection CollectionConfig  `yaml:"collection"`
	Weave      WeaveConfig       `yaml:"weave"`
	Index      IndexConfig       `yaml:"index"`
	HTTP       HTTPConfig        `yaml:"http"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Collection.Validate(); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if err := c.Weave.Validate(); err != nil {
		return fmt.Errorf("weave: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return c.Auth.Validate()
}

// Settings returns the values tools read.
func (c *Config) Settings() tool.Settings {
	return tool.Settings{
		Ignore:       c.Collection.Ignore,
		Indent:       c.Collection.Indent,
		WeaveShell:   c.Weave.Shell,
		WeaveTimeout: c.Weave.Timeout,
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// CollectionConfig controls how collection directories are read and written.
//
// Indent is "auto" (keep the input's indentation), "tabs", or a number of
// spaces.
type CollectionConfig struct {
	Root   string   `yaml:"root"`
	Ignore []string `yaml:"ignore"`
	Indent string   `yaml:"indent"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Ignore, validation.Each(validation.By(validGlob))),
		validation.Field(&c.Indent, validation.By(validIndent)),
	)
}

func validGlob(v any) error {
	s, _ := v.(string)
	if !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob %q", s)
	}
	return nil
}

func validIndent(v any) error {
	s, _ := v.(string)
	_, _, err := idm.ParseStyle(s)
	return err
}

// WeaveConfig configures script execution for the weave tool.
type WeaveConfig struct {
	Shell   string        `yaml:"shell"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the weave configuration.
func (c *WeaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Shell, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// IndexConfig holds SQLite index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return errors.New("auth: mode is \"token\" but token is empty")
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Collection: CollectionConfig{
			Root:   ".",
			Indent: "auto",
		},
		Weave: WeaveConfig{
			Shell:   "sh",
			Timeout: time.Minute,
		},
		Index: IndexConfig{
			Path: "./idmkit.db",
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
