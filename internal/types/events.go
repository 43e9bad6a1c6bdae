package types

// EventKind enumerates the parser event stream vocabulary. Events arrive in
// strict declaration order, one ordered sequence per translation unit.
type EventKind uint8

const (
	EventEnterScope EventKind = iota
	EventExitScope
	EventDeclareSymbol
	EventDeclareAlias
	EventDeclareTemplate
	EventDeclareBase
	EventCallExpression
	EventAttachComment
	EventMalformedRegion
	// EventAssignFunction supplements the core stream: a variable was
	// assigned a function value. Produces no call site; it only makes a
	// later call through the variable statically traceable.
	EventAssignFunction
)

func (k EventKind) String() string {
	switch k {
	case EventEnterScope:
		return "EnterScope"
	case EventExitScope:
		return "ExitScope"
	case EventDeclareSymbol:
		return "DeclareSymbol"
	case EventDeclareAlias:
		return "DeclareAlias"
	case EventDeclareTemplate:
		return "DeclareTemplate"
	case EventDeclareBase:
		return "DeclareBase"
	case EventCallExpression:
		return "CallExpression"
	case EventAttachComment:
		return "AttachComment"
	case EventMalformedRegion:
		return "MalformedRegion"
	case EventAssignFunction:
		return "AssignFunction"
	default:
		return "unknown"
	}
}

// Event is one element of a translation unit's stream. Field use depends on
// Kind; unused fields stay zero.
type Event struct {
	Kind EventKind

	// EnterScope: ScopeKind + Name ("" for anonymous namespaces).
	// DeclareSymbol: Name (qualified or relative to the current scope),
	// SymbolKind, IsDefinition.
	ScopeKind    SymbolKind
	Name         string
	SymbolKind   SymbolKind
	IsDefinition bool

	// DeclareAlias: Name, Target, TemplateParams (template aliases).
	Target string

	// DeclareTemplate: Name, TemplateParams, Bases, Specializations.
	TemplateParams  []TemplateParam
	Bases           []BaseSpec
	Specializations []Specialization

	// DeclareBase: Name (derived), Target (base expression), Access, Virtual.
	Access  Access
	Virtual bool

	// CallExpression: Name (caller), Target (callee expression), InLambda
	// when the call sits inside a lambda body within the caller.
	// AssignFunction: Name (variable), Target (function expression).
	// AttachComment: Name (symbol), Target (raw comment text).
	InLambda bool

	// MalformedRegion: RecoveredUpTo is the byte/line boundary the parser
	// recovered at; ingestion of the current scope truncates there.
	RecoveredUpTo int

	Location Location
}

// EngineStats summarizes a committed engine run.
type EngineStats struct {
	Units          int
	Symbols        int
	Definitions    int
	Aliases        int
	Templates      int
	Instantiations int
	Edges          int
	ResolvedEdges  int
	CallSites      int
	Documented     int
	ErrorsByKind   map[string]int
}
