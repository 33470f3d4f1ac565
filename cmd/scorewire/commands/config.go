package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	scorewire "github.com/scorewire/scorewire-go"
)

// envPrefix marks which environment variables belong to the CLI; it is
// stripped before the remainder is mapped onto config keys.
const envPrefix = "SCOREWIRE_"

// Default CLI configuration values
const (
	DefaultConfigLogFormat = "text"
	DefaultConfigStorage   = scorewire.StorageTypeKeyring
)

// Config holds the CLI's configuration: logging plus the embedded SDK
// client configuration.
type Config struct {
	LogLevel  string           `json:"log_level"`
	LogFormat string           `json:"log_format" validate:"oneof=text json otel"`
	API       scorewire.Config `json:"api"`
}

// ApplyDefaults fills unset config fields with CLI-appropriate defaults.
// Unlike embedded SDK use, the CLI defaults to keyring storage so sessions
// survive between invocations.
func (c *Config) ApplyDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = slog.LevelInfo.String()
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.Storage == "" && c.API.Store == nil {
		c.API.Storage = DefaultConfigStorage
	}
	return c.API.ApplyDefaults()
}

// loadConfig merges configuration sources into a Config. Later sources win:
// a TOML config file is loaded first, SCOREWIRE_* environment variables
// layer on top, and explicitly set CLI flags override both.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Environment keys map onto the nested structure with a double
	// underscore per level: SCOREWIRE_API__BASE_URL → api.base_url.
	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			stripped := strings.TrimPrefix(key, envPrefix)
			nested := strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
			return nested, value
		},
		EnvironFunc: environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		flagValues := extractAndTransformFlags(cmd)
		if err := k.Load(confmap.Provider(flagValues, "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	config := &Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.API.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// extractAndTransformFlags collects the flags a user actually set, from this
// command and its parents, and rewrites each flag name as a koanf key:
// --api--base-url becomes api.base_url, --log-level becomes log_level.
func extractAndTransformFlags(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		// A flag left at its default must not shadow a value that came
		// from the config file or environment.
		if !cmd.IsSet(name) {
			continue
		}

		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(name, "--", ".")
			key = strings.ReplaceAll(key, "-", "_")
			values[key] = value
		}
	}

	return values
}
