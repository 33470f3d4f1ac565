package scorewire

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scorewire/scorewire-go/tokenstore"
)

// StorageType selects the backend used to persist the token record.
type StorageType string

const (
	StorageTypeMemory  StorageType = "memory"
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
)

// Default configuration values
const (
	DefaultTimeout     = 30 * time.Second
	DefaultStorageType = StorageTypeMemory

	keyringService = "scorewire-sdk"
)

// Config holds a client's configuration. Zero values are filled by
// ApplyDefaults; Validate enforces the required fields.
type Config struct {
	// BaseURL of the ScoreWire API, e.g. "https://api.scorewire.io/v1".
	BaseURL string `json:"base_url" validate:"required,url"`

	// Timeout applied to every request, refresh calls included.
	Timeout time.Duration `json:"timeout"`

	// Headers are attached verbatim to every outgoing request.
	Headers map[string]string `json:"headers,omitempty"`

	// CustomerToken is the fixed secondary tenant token attached as a
	// ctoken header on customer-scoped calls. Optional, client-configured,
	// not derived from login.
	CustomerToken string `json:"customer_token,omitempty"`

	// Storage configuration - where the token record lives
	Storage StorageType `json:"storage" validate:"omitempty,oneof=memory file keyring"`

	// StorageDir is the directory for file storage.
	StorageDir string `json:"storage_dir,omitempty"`

	// Store overrides Storage with a caller-supplied adapter.
	Store tokenstore.Store `json:"-"`

	// Logger for SDK diagnostics (defaults to slog.Default).
	Logger *slog.Logger `json:"-"`
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Storage == "" && c.Store == nil {
		c.Storage = DefaultStorageType
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.Storage == StorageTypeFile && c.StorageDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("storage_dir required (auto-detect failed: %w)", err)
		}
		c.StorageDir = filepath.Join(configDir, "scorewire")
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Storage == StorageTypeFile && c.StorageDir == "" {
		return errors.New("storage_dir required for file storage")
	}

	return nil
}

// NewStore creates the token store described by the configuration. A
// caller-supplied Store adapter takes precedence over the Storage type.
func (c *Config) NewStore() (tokenstore.Store, error) {
	if c.Store != nil {
		return c.Store, nil
	}

	switch c.Storage {
	case StorageTypeMemory:
		return tokenstore.NewMemory(), nil
	case StorageTypeFile:
		return tokenstore.NewFile(c.StorageDir)
	case StorageTypeKeyring:
		return tokenstore.NewKeyring(keyringService)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage)
	}
}
