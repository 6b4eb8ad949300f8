package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nightjar-app/nightjar-go/internal/app"
	"github.com/nightjar-app/nightjar-go/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "nightjar",
		Usage: "Nightjar social client",
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
				Usage: "log format (text|json|otlp|otlp-stdout)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "backend API base URL",
				Value: app.DefaultConfigBaseURL,
			},
			&cli.IntFlag{
				Name:  "api--batch-limit",
				Usage: "max concurrent requests in batched fetches",
				Value: app.DefaultConfigBatchLimit,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage backend (file|env|keyring)",
				Value: string(app.DefaultConfigAuthStorage),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			signupCommand(),
			passwordCommand(),
			userCommand(),
			postsCommand(),
			feedCommand(),
			postCommand(),
			followCommand(),
			unfollowCommand(),
			reactionsCommand(),
			themeCommand(),
			notificationsCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads config, installs logging, and assembles the client.
func setup(cmd *cli.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	return application, nil
}
