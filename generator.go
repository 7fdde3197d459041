// Package ritual generates Rust bindings from C++ declaration manifests. A
// parsing front end produces an ordered list of declarations; this package
// maps them through FFI-safe intermediate types into wrapper items and
// renders the crate sources.
package ritual

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/csnover/ritual/analysis"
	"github.com/csnover/ritual/cpp"
	"github.com/csnover/ritual/database"
	"github.com/csnover/ritual/pipeline"
	"github.com/csnover/ritual/rust"
	"github.com/csnover/ritual/sink"
)

// Result summarizes one generator run.
type Result struct {
	// Skipped lists declarations left unprocessed with their reasons.
	Skipped []SkippedItem

	// Suggestions is the advisor's allocation-place report. Advisory only;
	// nothing is applied from it.
	Suggestions []analysis.Suggestion

	// FFIFunctions is the C glue surface a companion wrapper library must
	// provide, in generation order.
	FFIFunctions []database.FFIFunction
}

// Generate runs the full pass pipeline over decls and writes the crate
// sources to out. Declarations are consumed in the given order and never
// reordered. With cfg.SuggestOnly set, only the advisor passes do work and
// no code is emitted.
func Generate(ctx context.Context, decls []database.Declaration, cfg Config, out sink.OutputSink, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mapper, err := cpp.NewMapper(cfg.FlagsPattern, cfg.MovableTypes)
	if err != nil {
		return nil, err
	}

	db := &database.Database{}
	for _, d := range decls {
		db.Add(d)
	}
	rustDB := &rust.Database{}
	result := &Result{}
	b := newBuilder(db, rustDB, mapper, cfg.CrateName, logger)

	p := pipeline.New()
	p.Add(
		pipeline.Pass{
			Name: "set_allocation_places",
			Run: func(ctx context.Context, data *pipeline.Data) error {
				analysis.ApplyAllocationPlaces(data.Database, cfg.MovableTypes)
				return nil
			},
		},
		pipeline.Pass{
			Name:      "suggest_allocation_places",
			DependsOn: []string{"set_allocation_places"},
			Run: func(ctx context.Context, data *pipeline.Data) error {
				acfg := analysis.AllocationConfig{
					MinSampleCount:   cfg.MinSampleCount,
					MaxValueFraction: cfg.MaxValueFraction,
				}
				result.Suggestions = analysis.SuggestAllocationPlaces(data.Database, acfg, data.Logger)
				return nil
			},
		},
		pipeline.Pass{
			Name:      "generate_rust_items",
			DependsOn: []string{"set_allocation_places"},
			Run: func(ctx context.Context, data *pipeline.Data) error {
				if cfg.SuggestOnly {
					return nil
				}
				return b.run(ctx)
			},
		},
		pipeline.Pass{
			Name:      "emit_rust_code",
			DependsOn: []string{"generate_rust_items"},
			Run: func(ctx context.Context, data *pipeline.Data) error {
				if cfg.SuggestOnly {
					return nil
				}
				if out == nil {
					return fmt.Errorf("no output sink configured")
				}
				e := &rust.Emitter{Crate: cfg.CrateName, Logger: data.Logger}
				return e.Generate(ctx, data.Rust, out)
			},
		},
	)

	data := &pipeline.Data{Database: db, Rust: rustDB, Logger: logger}
	if err := p.Run(ctx, data); err != nil {
		return nil, err
	}

	result.Skipped = b.skipped
	for _, item := range db.Items {
		result.FFIFunctions = append(result.FFIFunctions, item.FFIFunctions...)
	}
	return result, nil
}

// Suggest runs only the allocation-place advisor over decls.
func Suggest(ctx context.Context, decls []database.Declaration, cfg Config, logger *slog.Logger) ([]analysis.Suggestion, error) {
	cfg.SuggestOnly = true
	result, err := Generate(ctx, decls, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}
