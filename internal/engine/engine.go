// Package engine orchestrates the resolution pipeline: it ingests parser
// event streams one translation unit at a time, runs units in parallel,
// merges their local symbol sets into the shared arena under a single
// writer, and serves the committed query API.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/andreymedv/clang-index-mcp/internal/alias"
	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/config"
	"github.com/andreymedv/clang-index-mcp/internal/debug"
	"github.com/andreymedv/clang-index-mcp/internal/doc"
	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/inherit"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/template"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Engine owns the retained event streams and the committed resolution
// state. Ingestion swaps in a freshly built view, so queries never observe
// a partially merged graph.
type Engine struct {
	cfg  *config.Config
	norm *doc.Normalizer

	mu    sync.RWMutex
	units map[string][]types.Event
	order []string
	view  *view
}

// view is one committed resolution state: the merged arena plus the
// resolvers that answer queries against it. Immutable once committed.
type view struct {
	arena   *arena.Arena
	scopes  *scope.Resolver
	aliases *alias.Resolver
	graph   *inherit.Builder
	calls   []types.CallSite
	errs    []error
	stats   types.EngineStats

	// Merged-symbol sets for stats: a template defined in a shared header
	// is seen once per including unit but counts once.
	templateSyms map[types.SymbolID]bool
	instSyms     map[types.SymbolID]bool
}

// New creates an engine with the given configuration. A nil config uses
// defaults rooted at the current directory.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default(".")
	}
	return &Engine{
		cfg:   cfg,
		norm:  doc.NewNormalizer(cfg.Engine.MaxDocLength),
		units: make(map[string][]types.Event),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// AddUnit registers (or replaces) one translation unit's event stream.
// Takes effect on the next Run or Rebuild.
func (e *Engine) AddUnit(path string, events []types.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.units[path]; !exists {
		e.order = append(e.order, path)
	}
	e.units[path] = events
}

// RemoveUnit drops a translation unit. Takes effect on the next Rebuild.
func (e *Engine) RemoveUnit(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.units[path]; !exists {
		return
	}
	delete(e.units, path)
	for i, p := range e.order {
		if p == path {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// UnitCount returns the number of registered translation units.
func (e *Engine) UnitCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.units)
}

// Run processes every registered unit and commits the merged result.
// Units run in parallel up to the configured worker count; the merge
// phase is strictly serial. An aborted unit (context cancellation)
// discards its local results without merging anything from it.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildLocked(ctx)
}

// Rebuild re-ingests every registered unit from scratch. Used after a
// watched file changes: the unit's previous contribution is discarded
// along with the old view.
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.Run(ctx)
}

func (e *Engine) rebuildLocked(ctx context.Context) error {
	workers := e.cfg.Engine.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*unitResult, len(e.order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range e.order {
		i, path := i, path
		events := e.units[path]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := ingestUnit(types.UnitID(i+1), path, events, e.cfg, e.norm)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("unit ingestion aborted: %w", err)
	}

	v := newView(e.cfg)
	for _, res := range results {
		if res == nil {
			continue
		}
		v.merge(res)
	}
	v.commit()
	debug.LogEngine("committed %d units: %d symbols, %d edges, %d call sites\n",
		v.stats.Units, v.stats.Symbols, v.stats.Edges, v.stats.CallSites)
	e.view = v
	return nil
}

func newView(cfg *config.Config) *view {
	a := arena.New()
	scopes := scope.NewResolver(a, 0)
	aliases := alias.NewResolver(scopes, cfg.Engine.MaxAliasDepth)
	templates := template.NewTracker(a)
	return &view{
		arena:        a,
		scopes:       scopes,
		aliases:      aliases,
		graph:        inherit.NewBuilder(a, scopes, aliases, templates),
		templateSyms: make(map[types.SymbolID]bool),
		instSyms:     make(map[types.SymbolID]bool),
	}
}

// merge commits one unit's local results into the shared state. Caller
// holds the engine write lock; the arena additionally serializes under
// its own writer lock so duplicate qualified names collapse correctly.
func (v *view) merge(res *unitResult) {
	remap := v.arena.Merge(res.arena)
	v.aliases.MergeFrom(res.aliases)
	v.graph.MergeFrom(res.graph, remap)
	v.calls = res.calls.MergeInto(v.calls, remap)
	v.errs = append(v.errs, res.errs...)

	v.stats.Units++
	v.stats.Aliases += res.aliases.Len()
	for _, id := range res.templates.DefinitionSymbols() {
		if m, ok := remap[id]; ok {
			id = m
		}
		v.templateSyms[id] = true
	}
	for _, id := range res.templates.InstantiationSymbols() {
		if m, ok := remap[id]; ok {
			id = m
		}
		v.instSyms[id] = true
	}
}

// commit retries unresolved plain-name bases against the merged arena
// (a base declared in another unit resolves only now), freezes any edge
// that closes a cycle visible only in the merged graph, and freezes stats.
func (v *view) commit() {
	v.graph.Reresolve(func(name types.QualifiedName) (types.SymbolID, bool) {
		ids := v.arena.LookupAnyKind(name)
		for _, id := range ids {
			if sym := v.arena.Get(id); sym != nil && sym.Kind.IsRecordKind() {
				return id, true
			}
		}
		if len(ids) == 1 {
			return ids[0], true
		}
		return types.InvalidSymbol, false
	})

	// Two units can each resolve one half of a cycle against the other's
	// forward declaration; only the merged graph can see it close.
	before := len(v.graph.Errors())
	if v.graph.FreezeCycles() > 0 {
		v.errs = append(v.errs, v.graph.Errors()[before:]...)
	}

	v.arena.Range(func(sym *types.Symbol) bool {
		v.stats.Symbols++
		if sym.IsDefinition {
			v.stats.Definitions++
		}
		if sym.Doc != nil {
			v.stats.Documented++
		}
		return true
	})
	v.stats.Templates = len(v.templateSyms)
	v.stats.Instantiations = len(v.instSyms)
	v.stats.Edges, v.stats.ResolvedEdges = v.graph.EdgeCount()
	v.stats.CallSites = len(v.calls)
	v.stats.ErrorsByKind = make(map[string]int)
	for _, err := range v.errs {
		v.stats.ErrorsByKind[string(cpperrors.KindOf(err))]++
	}
}

// snapshot returns the committed view for a read, or an error when no
// Run has completed yet.
func (e *Engine) snapshot() (*view, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.view == nil {
		return nil, fmt.Errorf("engine has no committed index; call Run first")
	}
	return e.view, nil
}

// Errors returns the resolution errors recorded during the last Run.
// All are per-edge or per-binding; none aborted processing.
func (e *Engine) Errors() []error {
	v, err := e.snapshot()
	if err != nil {
		return nil
	}
	return v.errs
}

// Stats returns counters for the last committed Run.
func (e *Engine) Stats() (types.EngineStats, error) {
	v, err := e.snapshot()
	if err != nil {
		return types.EngineStats{}, err
	}
	return v.stats, nil
}
