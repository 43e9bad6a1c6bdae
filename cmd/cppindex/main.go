package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/andreymedv/clang-index-mcp/internal/config"
	"github.com/andreymedv/clang-index-mcp/internal/debug"
	"github.com/andreymedv/clang-index-mcp/internal/engine"
	"github.com/andreymedv/clang-index-mcp/internal/mcp"
	"github.com/andreymedv/clang-index-mcp/internal/parser"
)

var Version = "0.1.0"

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root, _ = os.Getwd()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot, c.String("config"))
	if err != nil {
		return nil, err
	}
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Index.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Index.Exclude = append(cfg.Index.Exclude, excludeFlags...)
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Engine.Workers = workers
	}
	return cfg, nil
}

// buildIndex discovers, parses, and ingests every translation unit under
// the configured root.
func buildIndex(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	files, err := parser.Discover(cfg)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no C++ sources found under %s", cfg.Project.Root)
	}

	p, err := parser.New()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	eng := engine.New(cfg)
	for _, file := range files {
		events, parseErr := p.ParseFile(file)
		if parseErr != nil {
			debug.Printf("skipping %s: %v\n", file, parseErr)
			continue
		}
		eng.AddUnit(file, events)
	}
	if err := eng.Run(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func main() {
	app := &cli.App{
		Name:                   "cppindex",
		Usage:                  "C++ symbol and inheritance resolution for AI assistants",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.cppindex.kdl or cppindex.toml)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.cpp')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/vendor/**')",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel translation-unit workers (0 = all CPUs)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug output to a log file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				if path, err := debug.InitDebugLogFile(); err == nil {
					fmt.Fprintf(os.Stderr, "debug log: %s\n", path)
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			indexCommand(),
			queryCommand(),
			serveCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Build the index once and print statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			eng, err := buildIndex(c.Context, cfg)
			if err != nil {
				return err
			}
			stats, err := eng.Stats()
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(stats)
			}
			fmt.Printf("Units:          %d\n", stats.Units)
			fmt.Printf("Symbols:        %d (%d definitions)\n", stats.Symbols, stats.Definitions)
			fmt.Printf("Aliases:        %d\n", stats.Aliases)
			fmt.Printf("Templates:      %d (%d instantiations)\n", stats.Templates, stats.Instantiations)
			fmt.Printf("Base edges:     %d (%d resolved)\n", stats.Edges, stats.ResolvedEdges)
			fmt.Printf("Call sites:     %d\n", stats.CallSites)
			fmt.Printf("Documented:     %d\n", stats.Documented)
			for kind, count := range stats.ErrorsByKind {
				fmt.Printf("  %-22s %d\n", kind+":", count)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Build the index and serve MCP tools over stdio",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := buildIndex(ctx, cfg)
			if err != nil {
				return err
			}
			return mcp.NewServer(eng).Start(ctx)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Build the index, then re-ingest changed files until interrupted",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := buildIndex(ctx, cfg)
			if err != nil {
				return err
			}

			p, err := parser.New()
			if err != nil {
				return err
			}
			defer p.Close()

			watcher, err := engine.NewWatcher(eng, p.ParseFile)
			if err != nil {
				return err
			}
			if err := watcher.Start(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "watching %s (%d units)\n", cfg.Project.Root, eng.UnitCount())

			<-ctx.Done()
			return watcher.Stop()
		},
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
