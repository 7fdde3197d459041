// Package pipeline sequences named passes over the shared item database.
// Passes declare which other passes must already have completed; the
// pipeline executes a topologically valid order and fails fast when the
// declared order cannot be satisfied.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dominikbraun/graph"

	"github.com/csnover/ritual/database"
	"github.com/csnover/ritual/rust"
)

// ErrPipelineOrder reports that the declared pass dependencies cannot be
// satisfied. It is returned before any pass runs.
var ErrPipelineOrder = errors.New("unsatisfiable pass order")

// Data is the shared state a pass operates on. It is owned exclusively by
// the executing pass; passes run strictly one at a time.
type Data struct {
	Database *database.Database
	Rust     *rust.Database
	Logger   *slog.Logger
}

// Pass is one named unit of work.
type Pass struct {
	Name string

	// DependsOn names passes that must complete before this one runs.
	DependsOn []string

	Run func(ctx context.Context, data *Data) error
}

// Pipeline is an ordered collection of passes.
type Pipeline struct {
	passes []Pass
	index  map[string]int
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{index: make(map[string]int)}
}

// Add registers passes in declaration order. Duplicate names are rejected at
// Run time.
func (p *Pipeline) Add(passes ...Pass) {
	for _, pass := range passes {
		if _, ok := p.index[pass.Name]; !ok {
			p.index[pass.Name] = len(p.passes)
		}
		p.passes = append(p.passes, pass)
	}
}

// Run executes every pass in a topologically valid order. Declaration order
// breaks ties so runs are deterministic. Any pass error aborts the run with
// the pass name attached.
func (p *Pipeline) Run(ctx context.Context, data *Data) error {
	order, err := p.order()
	if err != nil {
		return err
	}
	logger := data.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range order {
		pass := p.passes[p.index[name]]
		logger.Debug("running pass", slog.String("pass", name))
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := pass.Run(ctx, data); err != nil {
			return fmt.Errorf("pass %s: %w", name, err)
		}
	}
	return nil
}

// order validates the declared dependencies and returns the execution order.
func (p *Pipeline) order() ([]string, error) {
	if len(p.passes) != len(p.index) {
		return nil, fmt.Errorf("%w: duplicate pass name", ErrPipelineOrder)
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, pass := range p.passes {
		if err := g.AddVertex(pass.Name); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrPipelineOrder, pass.Name, err)
		}
	}
	for _, pass := range p.passes {
		for _, dep := range pass.DependsOn {
			if _, ok := p.index[dep]; !ok {
				return nil, fmt.Errorf("%w: pass %s depends on unknown pass %s", ErrPipelineOrder, pass.Name, dep)
			}
			if err := g.AddEdge(dep, pass.Name); err != nil {
				return nil, fmt.Errorf("%w: pass %s depends on %s: %v", ErrPipelineOrder, pass.Name, dep, err)
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return p.index[a] < p.index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPipelineOrder, err)
	}
	return order, nil
}
