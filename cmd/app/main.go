package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/namohub/internal"
	pkgconfig "github.com/starford/namohub/pkg/config"
)

// loadConfig reads the --config file over the defaults. A missing file at
// the default location is not an error.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
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

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func classify(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Args().Present() {
		return fmt.Errorf("classify: text is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ClassifyText(ctx, strings.Join(cmd.Args().Slice(), " "), internal.WithConfig(cfg))
}

func importItems(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import: file is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ImportFile(ctx, path, internal.WithConfig(cfg))
}

func exportItems(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{internal.WithConfig(cfg)}

	if path := cmd.Args().First(); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		opts = append(opts, internal.WithOutput(f))
	}
	return internal.Export(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "namohub",
		Usage:  "Local-first knowledge item organizer with auto-classification, import/export and matrix, kanban and mindmap views",
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
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP tool server on stdio",
				Action: serveMCP,
			},
			{
				Name:      "classify",
				Usage:     "Classify text and print the result as JSON",
				ArgsUsage: "<text...>",
				Action:    classify,
			},
			{
				Name:      "import",
				Usage:     "Replace the collection with a JSON or YAML file of items",
				ArgsUsage: "<file>",
				Action:    importItems,
			},
			{
				Name:      "export",
				Usage:     "Write the collection as JSON to a file or stdout",
				ArgsUsage: "[file]",
				Action:    exportItems,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
