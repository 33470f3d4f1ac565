package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	scorewire "github.com/scorewire/scorewire-go"
	"github.com/scorewire/scorewire-go/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "scorewire",
		Usage: "ScoreWire API companion CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: DefaultConfigLogFormat,
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "ScoreWire API base URL",
			},
			&cli.DurationFlag{
				Name:  "api--timeout",
				Usage: "request timeout",
			},
			&cli.StringFlag{
				Name:  "api--storage",
				Usage: "token storage backend (memory|file|keyring)",
			},
			&cli.StringFlag{
				Name:  "api--storage-dir",
				Usage: "directory for file token storage",
			},
			&cli.StringFlag{
				Name:  "api--customer-token",
				Usage: "secondary tenant token for customer-scoped calls",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			refreshCommand(),
			logoutCommand(),
			statusCommand(),
			scoreCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, installs logging, and builds the SDK client.
// Shared by every subcommand action.
func setup(cmd *cli.Command) (*Config, *scorewire.Client, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	if err := observability.Instrument(level, cfg.LogFormat); err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	client, err := scorewire.New(&cfg.API)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	return cfg, client, nil
}
