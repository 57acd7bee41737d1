package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/quire/internal"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/site"
	pkgconfig "github.com/starford/quire/pkg/config"
)

var version = "dev"

// fallbackConfig is read when --config is left at its default and
// config.ini does not exist.
const fallbackConfig = "config.yaml"

func dirFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input-dir", Aliases: []string{"i"}, Usage: "Input directory", Value: "content"},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Output directory", Value: "build"},
		&cli.StringFlag{Name: "template-dir", Aliases: []string{"t"}, Usage: "Template directory", Value: "templates"},
		&cli.StringFlag{Name: "static-dir", Aliases: []string{"s"}, Usage: "Static directory", Value: "static"},
	}
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	// An explicit path must exist; the default falls back to config.yaml.
	cfg := internal.NewDefaultConfig()
	load := pkgconfig.Load[internal.Config]
	if !cmd.IsSet("config") {
		load = func(path string, target *internal.Config) error {
			return pkgconfig.LoadWithDefaults(path, fallbackConfig, target)
		}
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithDirs(site.Dirs{
			Input:     cmd.String("input-dir"),
			Output:    cmd.String("output-dir"),
			Templates: cmd.String("template-dir"),
			Static:    cmd.String("static-dir"),
		}),
		internal.WithVerbose(cmd.Bool("verbose")),
		internal.WithVersion(version),
	}, nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if _, err := internal.Build(ctx, opts...); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "quire",
		Usage:   "Static blog generator with a live-reloading development server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.ini or .yaml); config.yaml is tried when the default is missing",
				DefaultText: "config.ini",
				Value:       "config.ini",
				Sources:     cli.EnvVars("QUIRE_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the site once",
				Flags:  dirFlags(),
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Serve the output directory and rebuild on changes",
				Flags:  dirFlags(),
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose build and search tools over MCP on stdio",
				Flags:  dirFlags(),
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
