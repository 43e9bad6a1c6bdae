package engine

import (
	"github.com/andreymedv/clang-index-mcp/internal/alias"
	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/callgraph"
	"github.com/andreymedv/clang-index-mcp/internal/config"
	"github.com/andreymedv/clang-index-mcp/internal/doc"
	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/inherit"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/template"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// unitResult is one translation unit's locally-scoped build, ready for the
// serial merge phase.
type unitResult struct {
	path      string
	arena     *arena.Arena
	aliases   *alias.Resolver
	templates *template.Tracker
	graph     *inherit.Builder
	calls     *callgraph.Extractor
	errs      []error
}

// unitState consumes one unit's event stream in strict declaration order.
// Every resolution step runs to completion before the next event.
type unitState struct {
	unit   types.UnitID
	scopes *scope.Resolver
	res    *unitResult

	// pendingParams holds the parameter list of the template declared by
	// the immediately preceding DeclareTemplate event, so the body scope
	// that follows gets parameter shadowing.
	pendingParams []types.TemplateParam
	pendingName   string

	// templateWrapped tracks, per open scope, whether a template-body
	// scope was pushed underneath it and must be popped with it.
	templateWrapped []bool

	// Malformed-region recovery: the rest of the current scope is dropped,
	// keeping everything ingested before the boundary. skipNested counts
	// scopes opened and closed inside the dropped region.
	skipping   bool
	skipNested int
}

// ingestUnit builds one unit's local symbol set. No state escapes until
// the merge phase; a unit abandoned mid-stream leaves the shared view
// untouched.
func ingestUnit(unit types.UnitID, path string, events []types.Event, cfg *config.Config, norm *doc.Normalizer) *unitResult {
	a := arena.New()
	scopes := scope.NewResolver(a, unit)
	aliases := alias.NewResolver(scopes, cfg.Engine.MaxAliasDepth)
	templates := template.NewTracker(a)

	st := &unitState{
		unit:   unit,
		scopes: scopes,
		res: &unitResult{
			path:      path,
			arena:     a,
			aliases:   aliases,
			templates: templates,
			graph:     inherit.NewBuilder(a, scopes, aliases, templates),
			calls:     callgraph.NewExtractor(a, scopes, templates),
		},
	}

	for i := range events {
		st.consume(&events[i], norm)
	}

	st.res.errs = append(st.res.errs, aliases.Errors()...)
	st.res.errs = append(st.res.errs, templates.Errors()...)
	st.res.errs = append(st.res.errs, st.res.graph.Errors()...)
	return st.res
}

func (st *unitState) consume(ev *types.Event, norm *doc.Normalizer) {
	if st.skipping {
		switch ev.Kind {
		case types.EventEnterScope:
			st.skipNested++
		case types.EventExitScope:
			if st.skipNested > 0 {
				st.skipNested--
				return
			}
			// The truncated scope itself closes; resume in the parent.
			st.skipping = false
			st.exitScope()
		}
		return
	}

	if ev.Kind != types.EventEnterScope {
		st.pendingParams = nil
	}

	switch ev.Kind {
	case types.EventEnterScope:
		st.enterScope(ev)
	case types.EventExitScope:
		st.exitScope()
	case types.EventDeclareSymbol:
		st.declareSymbol(ev)
	case types.EventDeclareAlias:
		st.declareAlias(ev)
	case types.EventDeclareTemplate:
		st.declareTemplate(ev)
	case types.EventDeclareBase:
		st.declareBase(ev)
	case types.EventCallExpression:
		st.recordCall(ev)
	case types.EventAssignFunction:
		st.res.calls.RecordAssignment(st.scopes.Current(), ev.Name, ev.Target)
	case types.EventAttachComment:
		st.attachComment(ev, norm)
	case types.EventMalformedRegion:
		st.res.errs = append(st.res.errs, cpperrors.NewMalformedInput(ev.Location, ev.RecoveredUpTo))
		st.skipping = true
		st.skipNested = 0
	}
}

func (st *unitState) enterScope(ev *types.Event) {
	wrapped := false
	if st.pendingParams != nil && ev.Name == st.pendingName {
		st.scopes.EnterTemplateBody(st.pendingParams)
		wrapped = true
	}
	st.pendingParams = nil
	st.scopes.EnterScope(ev.ScopeKind, ev.Name, ev.Location)
	st.templateWrapped = append(st.templateWrapped, wrapped)
}

func (st *unitState) exitScope() {
	st.scopes.ExitScope()
	if n := len(st.templateWrapped); n > 0 {
		if st.templateWrapped[n-1] {
			st.scopes.ExitScope()
		}
		st.templateWrapped = st.templateWrapped[:n-1]
	}
}

func (st *unitState) declareSymbol(ev *types.Event) {
	id := st.scopes.Declare(ev.Name, ev.SymbolKind, ev.IsDefinition, ev.Location)
	if id == types.InvalidSymbol {
		return
	}
	// A method declared inside a record body joins the record's override
	// table. Overloads collapse by name.
	if ev.SymbolKind == types.KindMethod {
		if cur := st.scopes.Current(); cur.Kind.IsRecordKind() && cur.Symbol != types.InvalidSymbol {
			base := types.ParseQualifiedName(ev.Name).Base()
			st.res.graph.RegisterMethod(cur.Symbol, types.MethodSignature{Name: base}, id)
		}
	}
}

func (st *unitState) declareAlias(ev *types.Event) {
	st.scopes.Declare(ev.Name, types.KindAlias, true, ev.Location)
	full := st.scopes.Current().Path
	for _, seg := range types.ParseQualifiedName(ev.Name) {
		full = full.Child(seg)
	}
	st.res.aliases.Define(full, types.ParseTypeExpr(ev.Target), ev.TemplateParams, ev.Location, st.unit)
}

func (st *unitState) declareTemplate(ev *types.Event) {
	id := st.scopes.Declare(ev.Name, types.KindTemplate, ev.IsDefinition, ev.Location)
	if id == types.InvalidSymbol {
		return
	}
	sym := st.res.arena.Get(id)
	if def, exists := st.res.templates.Definition(id); exists {
		// An explicit specialization re-declares the primary's name with
		// only Specializations set; fold it into the known definition.
		def.Specializations = append(def.Specializations, ev.Specializations...)
		if len(def.Params) == 0 {
			def.Params = ev.TemplateParams
		}
		if len(def.Bases) == 0 {
			def.Bases = ev.Bases
		}
	} else {
		sym.TemplateParams = ev.TemplateParams
		st.res.templates.Define(&types.TemplateDefinition{
			Symbol:          id,
			Name:            sym.Name,
			Params:          ev.TemplateParams,
			Bases:           ev.Bases,
			Specializations: ev.Specializations,
			Location:        ev.Location,
		})
	}
	st.pendingParams = ev.TemplateParams
	st.pendingName = types.ParseQualifiedName(ev.Name).Base()
}

// declareBase forwards one base specifier to the graph builder. Bases of
// forward declarations never contribute edges; only the definition's do.
func (st *unitState) declareBase(ev *types.Event) {
	res := st.scopes.Resolve(ev.Name)
	if res.Status != scope.StatusFound {
		st.res.errs = append(st.res.errs, cpperrors.NewUnresolved(ev.Name, ev.Location))
		return
	}
	sym := st.res.arena.Get(res.Symbol)
	if sym == nil || !sym.IsDefinition {
		return
	}
	st.res.graph.AddBase(res.Symbol, st.scopes.Current(), types.ParseTypeExpr(ev.Target),
		ev.Access, ev.Virtual, nil, ev.Location)
}

func (st *unitState) recordCall(ev *types.Event) {
	caller := types.InvalidSymbol
	if res := st.scopes.Resolve(ev.Name); res.Status == scope.StatusFound {
		caller = res.Symbol
	} else {
		// A caller the stream never declared still anchors its call sites.
		caller = st.scopes.Declare(ev.Name, types.KindFunction, false, ev.Location)
	}
	st.res.calls.RecordCall(caller, st.scopes.Current(), ev.Target, ev.InLambda, ev.Location)
}

func (st *unitState) attachComment(ev *types.Event, norm *doc.Normalizer) {
	res := st.scopes.Resolve(ev.Name)
	if res.Status != scope.StatusFound {
		return
	}
	st.res.arena.AttachDoc(res.Symbol, norm.Normalize(ev.Target, ev.Location))
}
