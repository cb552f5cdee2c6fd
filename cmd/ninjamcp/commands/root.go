package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/goetzcj/ninjamcp/internal/app"
	"github.com/goetzcj/ninjamcp/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "ninjamcp",
		Usage: "NinjaRMM MCP server with hybrid OAuth2 authentication",
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
		},
		Commands: []*cli.Command{
			startCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "serve the MCP protocol over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "ninja--base-url",
				Usage: "NinjaRMM API base URL",
				Value: app.DefaultConfigBaseURL,
			},
			&cli.StringFlag{
				Name:  "auth--mode",
				Usage: "authentication mode (client|user|hybrid)",
				Value: string(app.DefaultConfigAuthMode),
			},
			&cli.IntFlag{
				Name:  "auth--redirect-port",
				Usage: "local callback port for the user authorization flow",
				Value: int(app.DefaultConfigRedirectPort),
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage backend (file|env|keyring)",
				Value: string(app.DefaultConfigAuthStorage),
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logging before creating app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
