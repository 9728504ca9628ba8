package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/pathguard"
	"github.com/starford/raido/internal/themes"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
			// No config file and none requested: run on defaults.
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root := cfg.Browse.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		root = home
	}

	guard, err := pathguard.New(root)
	if err != nil {
		return fmt.Errorf("init path guard: %w", err)
	}
	if err := os.MkdirAll(cfg.Themes.Dir, 0o755); err != nil {
		return fmt.Errorf("create themes dir: %w", err)
	}

	srv := mcpserver.New(browse.NewService(guard), themes.NewStore(filepath.Clean(cfg.Themes.Dir)))
	return srv.ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "raido",
		Usage:  "Local Markdown viewer with directory browsing, size-capped reads, and CSS themes",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve Raido tools over the Model Context Protocol on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
