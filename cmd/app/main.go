package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/sitemapd/internal"
	pkgconfig "github.com/starford/sitemapd/pkg/config"
)

// defaultConfigFile is read when the configured file does not exist.
const defaultConfigFile = "config/config.example.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), defaultConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func generate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Generate(ctx, cmd.String("format"), cmd.String("output"), os.Stdout, internal.WithConfig(cfg))
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "sitemapd",
		Usage:  "Collects a site's published content into HTML and XML sitemaps",
		Action: serve,
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
				Name:   "serve",
				Usage:  "Serve the sitemaps over HTTP (default)",
				Action: serve,
			},
			{
				Name:   "generate",
				Usage:  "Collect once and write the sitemap to stdout or a file",
				Action: generate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: xml or html",
						Value:   "xml",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
						Sources: cli.EnvVars("SITEMAP_OUTPUT"),
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the sitemap tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
