package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/kvstore"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	Store     StoreConfig       `yaml:"store"`
	Auth      AuthConfig        `yaml:"auth"`
	Generator GeneratorConfig   `yaml:"generator"`
	Focus     FocusConfig       `yaml:"focus"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	return c.Focus.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StoreConfig selects where the report cache lives.
type StoreConfig struct {
	Driver string       `yaml:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = kvstore.DriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(kvstore.DriverSQLite, kvstore.DriverRedis, kvstore.DriverMemory)),
	); err != nil {
		return err
	}
	switch c.Driver {
	case kvstore.DriverSQLite:
		return validation.ValidateStruct(&c.SQLite,
			validation.Field(&c.SQLite.Path, validation.Required),
		)
	case kvstore.DriverRedis:
		return validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.Addr, validation.Required),
			validation.Field(&c.Redis.DB, validation.Min(0)),
		)
	}
	return nil
}

// Options converts the configuration into kvstore options.
func (c *StoreConfig) Options() kvstore.Options {
	return kvstore.Options{
		Driver:        c.Driver,
		SQLitePath:    c.SQLite.Path,
		RedisAddr:     c.Redis.Addr,
		RedisPassword: c.Redis.Password,
		RedisDB:       c.Redis.DB,
		RedisPrefix:   c.Redis.Prefix,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
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
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// Generator drivers.
const (
	GeneratorDriverHTTP   = "http"
	GeneratorDriverOpenAI = "openai"
)

// GeneratorConfig selects how reports are generated.
//
// Driver "http" (default) posts digests to Endpoint; an empty Endpoint is
// allowed and generation then fails with a not-configured error.
// Driver "openai" prompts an OpenAI-compatible chat model; Endpoint is the
// optional base URL and APIKey plus ModelName are required.
type GeneratorConfig struct {
	Driver      string        `yaml:"driver"`
	Endpoint    string        `yaml:"endpoint"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	APIKey     string        `yaml:"api_key"`
	ProviderID string        `yaml:"provider_id"`
	ModelName  string        `yaml:"model_name"`
	Limit      int           `yaml:"limit"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Validate validates the generator configuration.
func (c *GeneratorConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = GeneratorDriverHTTP
	}
	openAI := c.Driver == GeneratorDriverOpenAI
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(GeneratorDriverHTTP, GeneratorDriverOpenAI)),
		validation.Field(&c.APIKey, validation.When(openAI, validation.Required)),
		validation.Field(&c.ModelName, validation.When(openAI, validation.Required)),
		validation.Field(&c.Limit, validation.Required, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
	)
}

// FocusConfig tunes the Recent Focus pipeline.
type FocusConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
	PreviewChars    int           `yaml:"preview_chars"`
	Budget          digest.Budget `yaml:"budget"`
}

// Validate validates the focus configuration.
func (c *FocusConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RefreshInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.PreviewChars, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("focus.budget: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Store: StoreConfig{
			Driver: kvstore.DriverSQLite,
			SQLite: SQLiteConfig{Path: "./kenaz-focus.db"},
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "kenaz-focus:"},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Generator: GeneratorConfig{
			Driver:  GeneratorDriverHTTP,
			Limit:   5,
			Timeout: 90 * time.Second,
		},
		Focus: FocusConfig{
			RefreshInterval: 24 * time.Hour,
			WatchDebounce:   500 * time.Millisecond,
			PreviewChars:    160,
			Budget: digest.Budget{
				MaxNotes:          30,
				MaxTotalChars:     12000,
				MaxSnippetChars:   600,
				MaxHeadingCount:   6,
				MaxBulletCount:    8,
				MaxHeadingChars:   120,
				MaxBulletChars:    160,
				MaxParagraphCount: 3,
				MaxParagraphChars: 280,
			},
		},
	}
}
