package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/csnover/ritual"
	"github.com/csnover/ritual/database"
	"github.com/csnover/ritual/sink"
)

type CLI struct {
	Verbose bool `help:"Enable debug logging." short:"v"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     GenCmd     `cmd:"" help:"Generate Rust binding sources from a declaration manifest."`
	Suggest SuggestCmd `cmd:"" help:"Report allocation-place suggestions for a declaration manifest."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(logger *slog.Logger) error {
	fmt.Println(Version())
	return nil
}

type GenCmd struct {
	Manifest string `arg:"" help:"Path to the JSON declaration manifest." type:"existingfile"`
	Out      string `arg:"" optional:"" help:"Output directory for the generated crate (overrides config)."`
	Config   string `help:"Directory containing ritual.yaml." default:"." short:"c"`
	Crate    string `help:"Crate name (overrides config)."`
}

func (c *GenCmd) Run(logger *slog.Logger) error {
	cfg, err := loadConfig(c.Config, c.Crate)
	if err != nil {
		return err
	}
	outDir := c.Out
	if outDir == "" {
		outDir = cfg.OutDir
	}
	if outDir == "" {
		return fmt.Errorf("no output directory: pass OUT or set out_dir in ritual.yaml")
	}

	decls, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}

	result, err := ritual.Generate(context.Background(), decls, *cfg,
		sink.NewFilesystemSink(outDir), logger)
	if err != nil {
		return err
	}

	for _, s := range result.Skipped {
		logger.Warn("skipped declaration",
			slog.String("path", s.Path.String()),
			slog.String("reason", s.Reason))
	}
	fmt.Fprintf(os.Stderr, "generated %d FFI functions, skipped %d of %d declarations\n",
		len(result.FFIFunctions), len(result.Skipped), len(decls))
	return nil
}

type SuggestCmd struct {
	Manifest string `arg:"" help:"Path to the JSON declaration manifest." type:"existingfile"`
	Config   string `help:"Directory containing ritual.yaml." default:"." short:"c"`
	Crate    string `help:"Crate name (overrides config)."`
}

func (c *SuggestCmd) Run(logger *slog.Logger) error {
	cfg, err := loadConfig(c.Config, c.Crate)
	if err != nil {
		return err
	}
	decls, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	suggestions, err := ritual.Suggest(context.Background(), decls, *cfg, logger)
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Printf("%-13s %s  (%s)\n", s.Place, s.Path, s.Reason)
	}
	return nil
}

func loadConfig(dir, crate string) (*ritual.Config, error) {
	cfg, err := ritual.LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	if crate != "" {
		cfg.CrateName = crate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadManifest(path string) ([]database.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m database.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m.Declarations, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("ritual"),
		kong.Description("Rust binding generator for C++ declaration manifests."),
		kong.UsageOnError(),
	)
	err := ctx.Run(newLogger(cli.Verbose))
	ctx.FatalIfErrorf(err)
}
