package types

// EdgeStatus is the resolution outcome of a base-specifier or binding.
type EdgeStatus uint8

const (
	EdgeResolved    EdgeStatus = iota
	EdgeUnresolved             // name bound to nothing
	EdgeDependent              // waits on a template parameter
	EdgeCycle                  // frozen by cycle detection
	EdgeAmbiguous              // multiple candidates, no tie-break
	EdgeUnsupported            // recognized construct the engine refuses
)

func (s EdgeStatus) String() string {
	switch s {
	case EdgeResolved:
		return "resolved"
	case EdgeUnresolved:
		return "unresolved"
	case EdgeDependent:
		return "dependent"
	case EdgeCycle:
		return "cycle"
	case EdgeAmbiguous:
		return "ambiguous"
	case EdgeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// InheritanceEdge is one declared base of a record type. Edges keep their
// declaration order via Ordinal; unresolved edges keep the original
// spelling in BaseExpr so diagnostics can show what failed.
type InheritanceEdge struct {
	Derived  SymbolID
	Base     SymbolID // InvalidSymbol unless Status == EdgeResolved
	BaseExpr TypeExpr
	Status   EdgeStatus
	Access   Access
	Virtual  bool
	Ordinal  int
	Location Location
}

// Ancestor is one entry of an ancestors() result. A non-virtual base
// reachable over two paths appears twice with AmbiguousAccess set on both.
type Ancestor struct {
	Symbol          SymbolID
	Access          Access
	Virtual         bool
	Depth           int
	AmbiguousAccess bool
}

// AliasBinding maps a name to a target type expression in a scope.
type AliasBinding struct {
	Name     QualifiedName
	Target   TypeExpr
	Params   []TemplateParam // non-nil for template aliases
	Location Location
	Unit     UnitID
}

// IsTemplate reports whether the binding needs arguments to resolve.
func (a *AliasBinding) IsTemplate() bool { return len(a.Params) > 0 }

// ResolvedTarget is the outcome of following an alias chain.
type ResolvedTarget struct {
	Status EdgeStatus
	Symbol SymbolID // concrete symbol, when one exists
	Expr   TypeExpr // final expression (primitive or unresolvable spelling)
	// Qualifier metadata preserved from the chain: the underlying entity is
	// resolved even when the target was written as a wrapper around it.
	Const    bool
	PtrDepth int
	Ref      RefKind
}

// IsWrapped reports pointer/reference/const qualification accumulated along
// the chain. Wrapped targets are not valid base classes.
func (r ResolvedTarget) IsWrapped() bool {
	return r.Const || r.PtrDepth > 0 || r.Ref != RefNone
}

// BaseSpec is a declared base inside a template definition, before any
// substitution.
type BaseSpec struct {
	Expr    TypeExpr
	Access  Access
	Virtual bool
}

// Specialization is one explicit specialization of a template. A fully
// concrete pattern is a full specialization; a parametrized pattern is a
// partial one. Its base list stands alone and is never merged with the
// primary's.
type Specialization struct {
	Pattern  []TypeExpr
	Params   []TemplateParam // empty for full specializations
	Bases    []BaseSpec
	Location Location
}

// IsFull reports whether the pattern is fully concrete.
func (s *Specialization) IsFull() bool { return len(s.Params) == 0 }

// TemplateDefinition is a primary template plus its specializations.
type TemplateDefinition struct {
	Symbol          SymbolID
	Name            QualifiedName
	Params          []TemplateParam
	Bases           []BaseSpec // primary's own base list
	Specializations []Specialization
	Location        Location
}

// SelectedKind tags which member of a TemplateDefinition an instantiation
// picked.
type SelectedKind uint8

const (
	SelectedPrimary SelectedKind = iota
	SelectedPartial
	SelectedFull
)

func (k SelectedKind) String() string {
	switch k {
	case SelectedPartial:
		return "partial"
	case SelectedFull:
		return "full"
	default:
		return "primary"
	}
}

// Instantiation is the concrete realization of a template for one argument
// list, cached by (template, canonical argument spelling).
type Instantiation struct {
	Template  SymbolID
	Args      []TypeExpr
	Selected  SelectedKind
	SpecIndex int      // index into Specializations when Selected != SelectedPrimary
	Symbol    SymbolID // the materialized concrete symbol
	Ambiguous bool     // partial-ordering tie; Symbol still materialized, bases withheld
	// Bases is the selected definition's base list with template parameters
	// substituted by the matched arguments. Exactly the selected list;
	// specialization bases are never unioned with the primary's.
	Bases []BaseSpec
}

// CallKind classifies a recorded invocation.
type CallKind uint8

const (
	CallDirect CallKind = iota
	CallFunctionPointer
	CallLambdaInvocation
	CallLambdaBody
	CallRecursive
	CallTemplateInstantiated
)

func (k CallKind) String() string {
	switch k {
	case CallFunctionPointer:
		return "through-function-pointer"
	case CallLambdaInvocation:
		return "lambda-invocation"
	case CallLambdaBody:
		return "lambda-body-call"
	case CallRecursive:
		return "recursive"
	case CallTemplateInstantiated:
		return "template-instantiated"
	default:
		return "direct"
	}
}

// CallSite is one resolved (or explicitly unresolved) invocation edge.
type CallSite struct {
	Caller   SymbolID
	Callee   SymbolID // InvalidSymbol when indirect and untraceable
	Indirect bool     // true when Callee could not be bound
	Kind     CallKind
	Location Location
}

// DocStyle is the detected comment convention.
type DocStyle uint8

const (
	DocDoxygenLine DocStyle = iota
	DocDoxygenBlock
	DocJavadoc
	DocQtBang
	DocQtBackslash
)

func (s DocStyle) String() string {
	switch s {
	case DocDoxygenLine:
		return "doxygen-line"
	case DocDoxygenBlock:
		return "doxygen-block"
	case DocJavadoc:
		return "javadoc"
	case DocQtBang:
		return "qt-bang"
	case DocQtBackslash:
		return "qt-backslash"
	default:
		return "unknown"
	}
}

// DocParam is one documented parameter.
type DocParam struct {
	Name string
	Text string
}

// DocComment is normalized symbol documentation.
type DocComment struct {
	Raw       string
	Style     DocStyle
	Brief     string
	Params    []DocParam
	Return    string
	See       []string
	Notes     []string
	Text      string // normalized plain text, possibly truncated
	Truncated bool
	Location  Location
}
