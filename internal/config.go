package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/corvand/remedy/internal/session"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Blob  BlobConfig        `yaml:"blob"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Blob.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the document-store driver.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverSQLite, StoreDriverMemory)),
	); err != nil {
		return err
	}
	if c.Driver == StoreDriverSQLite && c.Path == "" {
		return fmt.Errorf("store: driver is %q but path is empty", StoreDriverSQLite)
	}
	return nil
}

// BlobConfig holds the asset directory and the public URL assets resolve
// under.
type BlobConfig struct {
	Dir       string `yaml:"dir"`
	PublicURL string `yaml:"public_url"`
}

// Validate validates the blob configuration.
func (c *BlobConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.PublicURL, validation.Required),
	)
}

// AccountConfig is one configured staff credential pair.
type AccountConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// AuthConfig holds the session token settings and staff accounts.
type AuthConfig struct {
	Secret      string          `yaml:"secret"`
	TokenTTL    time.Duration   `yaml:"token_ttl"`
	AllowSignup bool            `yaml:"allow_signup"`
	Accounts    []AccountConfig `yaml:"accounts"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.Required, validation.Length(16, 0)),
	); err != nil {
		return err
	}
	if len(c.Accounts) == 0 && !c.AllowSignup {
		return fmt.Errorf("auth: no accounts configured and signup is disabled")
	}
	for _, a := range c.Accounts {
		if a.Email == "" || a.Password == "" {
			return fmt.Errorf("auth: account entries need both email and password")
		}
	}
	return nil
}

// StaffAccounts converts the configured accounts for the authenticator.
func (c *AuthConfig) StaffAccounts() []session.Account {
	out := make([]session.Account, len(c.Accounts))
	for i, a := range c.Accounts {
		out[i] = session.Account{Email: a.Email, Password: a.Password}
	}
	return out
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
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Path:   "./remedy.db",
		},
		Blob: BlobConfig{
			Dir:       "./assets",
			PublicURL: "http://localhost:8080/assets",
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
	}
}
