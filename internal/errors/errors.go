package errors

import (
	"fmt"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Error kinds for the resolution engine. Resolution-level kinds attach to
// the specific edge or binding that failed and never abort the surrounding
// unit; structural kinds freeze the offending chain or edge and processing
// continues elsewhere.
type ErrorKind string

const (
	KindUnresolvedReference  ErrorKind = "unresolved_reference"
	KindAmbiguousName        ErrorKind = "ambiguous_name"
	KindCyclicAlias          ErrorKind = "cyclic_alias"
	KindCyclicInheritance    ErrorKind = "cyclic_inheritance"
	KindMalformedInput       ErrorKind = "malformed_input"
	KindUnsupportedConstruct ErrorKind = "unsupported_construct"
)

// ResolutionError records a name that could not be bound, or bound to more
// than one candidate. It is data as much as it is an error: the engine
// keeps these on the symbols they concern.
type ResolutionError struct {
	Kind       ErrorKind
	Name       string
	Candidates []string // populated for ambiguous lookups
	Location   types.Location
	Underlying error
}

// NewUnresolved records a reference that bound to nothing.
func NewUnresolved(name string, loc types.Location) *ResolutionError {
	return &ResolutionError{Kind: KindUnresolvedReference, Name: name, Location: loc}
}

// NewAmbiguous records a lookup with multiple candidates and no tie-break.
func NewAmbiguous(name string, candidates []string, loc types.Location) *ResolutionError {
	return &ResolutionError{Kind: KindAmbiguousName, Name: name, Candidates: candidates, Location: loc}
}

// NewUnsupported records a recognized-but-intentionally-unhandled construct.
func NewUnsupported(name, detail string, loc types.Location) *ResolutionError {
	return &ResolutionError{
		Kind:       KindUnsupportedConstruct,
		Name:       name,
		Location:   loc,
		Underlying: fmt.Errorf("%s", detail),
	}
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	switch e.Kind {
	case KindAmbiguousName:
		return fmt.Sprintf("ambiguous name %q at %s: %d candidates %v",
			e.Name, e.Location, len(e.Candidates), e.Candidates)
	case KindUnsupportedConstruct:
		return fmt.Sprintf("unsupported construct %q at %s: %v", e.Name, e.Location, e.Underlying)
	default:
		return fmt.Sprintf("unresolved reference %q at %s", e.Name, e.Location)
	}
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ResolutionError) Unwrap() error {
	return e.Underlying
}

// CycleError records a cyclic alias chain or cyclic inheritance edge. The
// chain holds the names visited up to the point of detection; resolution is
// frozen there.
type CycleError struct {
	Kind     ErrorKind
	Name     string
	Chain    []string
	Location types.Location
}

// NewCyclicAlias records an alias chain that revisited a name.
func NewCyclicAlias(name string, chain []string, loc types.Location) *CycleError {
	return &CycleError{Kind: KindCyclicAlias, Name: name, Chain: chain, Location: loc}
}

// NewCyclicInheritance records a base edge that closes a cycle.
func NewCyclicInheritance(name string, chain []string, loc types.Location) *CycleError {
	return &CycleError{Kind: KindCyclicInheritance, Name: name, Chain: chain, Location: loc}
}

// Error implements the error interface
func (e *CycleError) Error() string {
	what := "alias chain"
	if e.Kind == KindCyclicInheritance {
		what = "inheritance"
	}
	return fmt.Sprintf("cyclic %s at %q (%s): %v", what, e.Name, e.Location, e.Chain)
}

// MalformedInputError marks a parser recovery boundary. Everything parsed
// before RecoveredUpTo is kept; ingestion of the current scope truncates.
type MalformedInputError struct {
	Location      types.Location
	RecoveredUpTo int
}

// NewMalformedInput records a parser-reported recovery boundary.
func NewMalformedInput(loc types.Location, recoveredUpTo int) *MalformedInputError {
	return &MalformedInputError{Location: loc, RecoveredUpTo: recoveredUpTo}
}

// Error implements the error interface
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at %s, recovered up to %d", e.Location, e.RecoveredUpTo)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for field %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// KindOf classifies any engine error for stats bucketing; non-engine errors
// report as "internal".
func KindOf(err error) ErrorKind {
	switch e := err.(type) {
	case *ResolutionError:
		return e.Kind
	case *CycleError:
		return e.Kind
	case *MalformedInputError:
		return KindMalformedInput
	default:
		return "internal"
	}
}
