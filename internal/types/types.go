package types

import (
	"fmt"
	"strings"
)

// Common engine-wide constants
const (
	// DefaultMaxDocLength caps normalized documentation per symbol.
	// Anything longer is almost always license boilerplate or generated
	// reference text that drowns the useful part of the comment.
	DefaultMaxDocLength = 4000

	// DocTruncationMarker is appended when normalized documentation is cut
	// at DefaultMaxDocLength (or the configured override).
	DocTruncationMarker = "..."

	// DefaultMaxAliasDepth bounds alias chain substitution. Real code
	// rarely nests typedefs more than a handful deep; the cap exists so a
	// malformed cyclic chain that escapes name-based detection still
	// terminates.
	DefaultMaxAliasDepth = 64

	// DefaultSuggestionLimit caps did-you-mean candidates on failed lookups.
	DefaultSuggestionLimit = 5
)

// UnitID identifies a translation unit within one engine run.
type UnitID uint32

// SymbolID is a stable arena handle. Zero is never a valid symbol.
type SymbolID uint32

// InvalidSymbol is the zero SymbolID, used for absent references.
const InvalidSymbol SymbolID = 0

// SymbolKind classifies a declared entity.
type SymbolKind uint8

const (
	KindNamespace SymbolKind = iota
	KindClass
	KindStruct
	KindUnion
	KindEnum
	KindFunction
	KindMethod
	KindVariable
	KindAlias
	KindTemplate
	KindLambda
)

func (k SymbolKind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindVariable:
		return "variable"
	case KindAlias:
		return "alias"
	case KindTemplate:
		return "template"
	case KindLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// IsRecordKind reports whether the kind can carry base classes.
func (k SymbolKind) IsRecordKind() bool {
	return k == KindClass || k == KindStruct || k == KindUnion || k == KindTemplate
}

// ParseSymbolKind maps a kind name to a SymbolKind. Unknown names map to
// KindVariable, the least structured kind.
func ParseSymbolKind(s string) SymbolKind {
	switch s {
	case "namespace":
		return KindNamespace
	case "class":
		return KindClass
	case "struct":
		return KindStruct
	case "union":
		return KindUnion
	case "enum":
		return KindEnum
	case "function":
		return KindFunction
	case "method":
		return KindMethod
	case "alias", "typedef", "using":
		return KindAlias
	case "template":
		return KindTemplate
	case "lambda":
		return KindLambda
	default:
		return KindVariable
	}
}

// Access is a C++ access specifier.
type Access uint8

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "public"
	}
}

// ParseAccess maps an access specifier name; the default for base classes
// of `class` is private, but the frontend supplies that explicitly, so the
// fallback here is public.
func ParseAccess(s string) Access {
	switch s {
	case "protected":
		return AccessProtected
	case "private":
		return AccessPrivate
	default:
		return AccessPublic
	}
}

// Location is a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// QualifiedName is an ordered sequence of scope segments, innermost last.
// The empty name denotes the global scope.
type QualifiedName []string

// ParseQualifiedName splits "ns::Outer::Inner" into segments. A leading
// "::" (fully qualified from global scope) is tolerated and dropped;
// template argument lists inside a segment are kept intact.
func ParseQualifiedName(s string) QualifiedName {
	s = strings.TrimPrefix(s, "::")
	if s == "" {
		return nil
	}
	var segs []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' {
				segs = append(segs, s[start:i])
				i++
				start = i + 1
			}
		}
	}
	segs = append(segs, s[start:])
	return segs
}

// String renders the name with "::" separators.
func (q QualifiedName) String() string {
	return strings.Join(q, "::")
}

// Base returns the final (unqualified) segment.
func (q QualifiedName) Base() string {
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

// Parent returns the enclosing scope's qualified name.
func (q QualifiedName) Parent() QualifiedName {
	if len(q) == 0 {
		return nil
	}
	return q[:len(q)-1]
}

// Child returns q extended with one more segment.
func (q QualifiedName) Child(seg string) QualifiedName {
	out := make(QualifiedName, 0, len(q)+1)
	out = append(out, q...)
	return append(out, seg)
}

// Equal reports segment-wise equality.
func (q QualifiedName) Equal(o QualifiedName) bool {
	if len(q) != len(o) {
		return false
	}
	for i := range q {
		if q[i] != o[i] {
			return false
		}
	}
	return true
}

// Symbol is a declared entity. Symbols live in the arena for the full
// engine run; forward declarations of the same qualified name and kind
// collapse into one record.
type Symbol struct {
	ID            SymbolID
	Name          QualifiedName
	Kind          SymbolKind
	IsDefinition  bool
	Location      Location // first declaration seen
	DefLocation   Location // definition site, once one arrives
	OwnerScope    SymbolID // enclosing namespace/class symbol, InvalidSymbol at global scope
	Access        Access   // meaningful for members only
	TemplateParams []TemplateParam
	Doc           *DocComment
	Unit          UnitID // unit that first declared the symbol
}

// DisplayName is the qualified name as a string.
func (s *Symbol) DisplayName() string { return s.Name.String() }

// TemplateParam is one parameter of a template declaration.
type TemplateParam struct {
	Name    string
	IsPack  bool      // trailing parameter pack
	Default *TypeExpr // nil when the parameter has no default
}

// MethodSignature identifies a method for override matching: name plus the
// normalized parameter type list. Return type does not participate
// (covariant returns still override).
type MethodSignature struct {
	Name   string
	Params string // normalized comma-joined parameter types
}

func (m MethodSignature) String() string {
	return m.Name + "(" + m.Params + ")"
}
