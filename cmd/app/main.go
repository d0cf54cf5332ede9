package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/cheatsheet/internal"
	"github.com/starford/cheatsheet/internal/codec"
	"github.com/starford/cheatsheet/internal/confirm"
	"github.com/starford/cheatsheet/internal/preview"
	"github.com/starford/cheatsheet/internal/sheetservice"
	pkgconfig "github.com/starford/cheatsheet/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
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

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

// withSheet opens the configured sheet for a one-shot command.
func withSheet(ctx context.Context, cmd *cli.Command, fn func(*internal.Components) error, opts ...sheetservice.Option) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := internal.Open(ctx, cfg, os.Stderr, opts...)
	if err != nil {
		return err
	}
	return errors.Join(fn(c), c.Close())
}

func confirmer(cmd *cli.Command) confirm.Confirmer {
	if cmd.Bool("yes") {
		return confirm.Always
	}
	return confirm.Prompt(os.Stdin, os.Stderr)
}

func exportSheet(ctx context.Context, cmd *cli.Command) error {
	return withSheet(ctx, cmd, func(c *internal.Components) error {
		data, err := c.Service.Export()
		if err != nil {
			return err
		}
		out := cmd.String("out")
		if out == "-" {
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "exported to %s\n", out)
		return nil
	})
}

func importSheet(ctx context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("import: missing FILE argument")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return withSheet(ctx, cmd, func(c *internal.Components) error {
		ok, err := c.Service.Import(ctx, data, confirmer(cmd))
		return report(ok, err, "imported "+file)
	}, sheetservice.WithRecovery())
}

func resetSheet(ctx context.Context, cmd *cli.Command) error {
	return withSheet(ctx, cmd, func(c *internal.Components) error {
		ok, err := c.Service.Reset(ctx, confirmer(cmd))
		return report(ok, err, "sheet reset")
	}, sheetservice.WithRecovery())
}

func distributeSheet(ctx context.Context, cmd *cli.Command) error {
	return withSheet(ctx, cmd, func(c *internal.Components) error {
		if len(c.Service.Document().ContentBlocks()) == 0 {
			fmt.Fprintln(os.Stderr, "nothing to distribute")
			return nil
		}
		ok, err := c.Service.Distribute(ctx, confirmer(cmd))
		return report(ok, err, fmt.Sprintf("distributed into %d pages", len(c.Service.Document().Pages)))
	})
}

func previewSheet(ctx context.Context, cmd *cli.Command) error {
	return withSheet(ctx, cmd, func(c *internal.Components) error {
		fmt.Println(preview.Sheet(c.Service.Document(), int(cmd.Int("width"))))
		return nil
	})
}

func report(ok bool, err error, done string) error {
	switch {
	case err != nil:
		return err
	case !ok:
		fmt.Fprintln(os.Stderr, "cancelled")
	default:
		fmt.Fprintln(os.Stderr, done)
	}
	return nil
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "cheatsheet",
		Usage:  "Three-column cheat-sheet layout editor with automatic height-based distribution",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
			},
			{
				Name:   "export",
				Usage:  "Write the sheet as a " + codec.FileExtension + " file",
				Action: exportSheet,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout",
						Value:   codec.ExportFilename,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Replace the sheet with a " + codec.FileExtension + " file",
				ArgsUsage: "FILE",
				Action:    importSheet,
				Flags:     []cli.Flag{yesFlag()},
			},
			{
				Name:   "reset",
				Usage:  "Clear the sheet back to one empty page",
				Action: resetSheet,
				Flags:  []cli.Flag{yesFlag()},
			},
			{
				Name:   "distribute",
				Usage:  "Repack all blocks into columns by rendered height",
				Action: distributeSheet,
				Flags:  []cli.Flag{yesFlag()},
			},
			{
				Name:   "preview",
				Usage:  "Print the sheet to the terminal",
				Action: previewSheet,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "width",
						Usage: "Terminal width in cells",
						Value: preview.DefaultWidth,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
