package types

import "strings"

// RefKind distinguishes reference qualifiers on a type expression.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefLValue
	RefRValue
)

// TypeExpr is a parsed type expression: a possibly qualified name with
// optional template arguments and pointer/reference/const wrappers. It is
// the currency of alias targets, base specifiers, and template arguments.
//
// Only the final path segment carries structured template arguments;
// argument lists on intermediate segments stay embedded in the segment
// text, which is sufficient for name-based resolution.
type TypeExpr struct {
	Segments []string
	Args     []TypeExpr
	HasArgs  bool // distinguishes "Foo<>" (explicit empty list) from "Foo"
	Const    bool
	PtrDepth int
	Ref      RefKind
	IsPack   bool // written with a trailing "..."

	// packList carries the expansion of a variadic parameter binding; set
	// only through BindPack, never populated by the parser.
	packList []TypeExpr
}

// ParseTypeExpr parses a C++-ish type spelling such as
// "const ns::Traits<T*>::type&" into a TypeExpr. It is tolerant: anything
// unrecognized stays in the name segments untouched.
func ParseTypeExpr(s string) TypeExpr {
	var e TypeExpr
	s = strings.TrimSpace(s)

	for {
		switch {
		case strings.HasPrefix(s, "const "):
			e.Const = true
			s = strings.TrimSpace(s[len("const "):])
			continue
		case strings.HasPrefix(s, "typename "):
			s = strings.TrimSpace(s[len("typename "):])
			continue
		case strings.HasPrefix(s, "struct "):
			s = strings.TrimSpace(s[len("struct "):])
			continue
		case strings.HasPrefix(s, "class "):
			s = strings.TrimSpace(s[len("class "):])
			continue
		}
		break
	}

	// Trailing wrappers bind loosest; strip from the right.
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasSuffix(s, "..."):
			e.IsPack = true
			s = s[:len(s)-3]
		case strings.HasSuffix(s, "&&"):
			e.Ref = RefRValue
			s = s[:len(s)-2]
		case strings.HasSuffix(s, "&"):
			e.Ref = RefLValue
			s = s[:len(s)-1]
		case strings.HasSuffix(s, "*"):
			e.PtrDepth++
			s = s[:len(s)-1]
		case strings.HasSuffix(s, " const"):
			e.Const = true
			s = s[:len(s)-len(" const")]
		default:
			goto wrapped
		}
	}
wrapped:

	s = strings.TrimSpace(s)
	e.Segments = ParseQualifiedName(s)
	if len(e.Segments) == 0 {
		return e
	}

	// Pull a template argument list off the final segment.
	last := e.Segments[len(e.Segments)-1]
	if open := strings.IndexByte(last, '<'); open >= 0 && strings.HasSuffix(last, ">") {
		e.Segments[len(e.Segments)-1] = strings.TrimSpace(last[:open])
		e.HasArgs = true
		e.Args = splitTemplateArgs(last[open+1 : len(last)-1])
	}
	return e
}

// splitTemplateArgs splits "A, B<C,D>, E*" at top-level commas and parses
// each piece.
func splitTemplateArgs(s string) []TypeExpr {
	s = strings.TrimSpace(s)
	if s == "" {
		return []TypeExpr{}
	}
	var args []TypeExpr
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, ParseTypeExpr(s[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, ParseTypeExpr(s[start:]))
	return args
}

// Name returns the final path segment without arguments or wrappers.
func (e TypeExpr) Name() string {
	if len(e.Segments) == 0 {
		return ""
	}
	return e.Segments[len(e.Segments)-1]
}

// Qualified returns the segment path as a QualifiedName.
func (e TypeExpr) Qualified() QualifiedName {
	return QualifiedName(e.Segments)
}

// IsWrapped reports whether the expression carries pointer, reference, or
// const qualification.
func (e TypeExpr) IsWrapped() bool {
	return e.Const || e.PtrDepth > 0 || e.Ref != RefNone
}

// IsPlainName reports whether the expression is a bare single-segment name
// with no arguments and no wrappers, the shape a template parameter
// occurrence takes.
func (e TypeExpr) IsPlainName() bool {
	return len(e.Segments) == 1 && !e.HasArgs && !e.IsWrapped() && !e.IsPack
}

// Unwrapped returns a copy with pointer/reference/const stripped, keeping
// name, arguments, and pack flag.
func (e TypeExpr) Unwrapped() TypeExpr {
	e.Const = false
	e.PtrDepth = 0
	e.Ref = RefNone
	return e
}

// String renders a canonical spelling; used for cache keys and display, so
// it must be deterministic.
func (e TypeExpr) String() string {
	var b strings.Builder
	if e.Const {
		b.WriteString("const ")
	}
	b.WriteString(strings.Join(e.Segments, "::"))
	if e.HasArgs {
		b.WriteByte('<')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	for i := 0; i < e.PtrDepth; i++ {
		b.WriteByte('*')
	}
	switch e.Ref {
	case RefLValue:
		b.WriteByte('&')
	case RefRValue:
		b.WriteString("&&")
	}
	if e.IsPack {
		b.WriteString("...")
	}
	return b.String()
}

// Equal reports structural equality.
func (e TypeExpr) Equal(o TypeExpr) bool {
	if e.Const != o.Const || e.PtrDepth != o.PtrDepth || e.Ref != o.Ref ||
		e.IsPack != o.IsPack || e.HasArgs != o.HasArgs ||
		len(e.Segments) != len(o.Segments) || len(e.Args) != len(o.Args) {
		return false
	}
	for i := range e.Segments {
		if e.Segments[i] != o.Segments[i] {
			return false
		}
	}
	for i := range e.Args {
		if !e.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Substitute replaces template-parameter occurrences with their bound
// arguments. A whole-expression match ("T") takes the binding's shape and
// merges the occurrence's own wrappers on top ("T*" with T=int& stays
// int&*-shaped only in theory; in practice bindings are unwrapped names).
// A leading-segment match ("T::value_type" with T=Traits) rewrites the
// path head, which is how dependent qualified names become concrete.
func (e TypeExpr) Substitute(bindings map[string]TypeExpr) TypeExpr {
	out := e
	if len(e.Segments) >= 1 {
		if b, ok := bindings[e.Segments[0]]; ok {
			if len(e.Segments) == 1 && !e.HasArgs {
				merged := b
				merged.Const = merged.Const || e.Const
				merged.PtrDepth += e.PtrDepth
				if e.Ref != RefNone {
					merged.Ref = e.Ref
				}
				merged.IsPack = false // a bound pack occurrence is already expanded
				return merged
			}
			// Dependent path head: splice the binding's segments in.
			segs := make([]string, 0, len(b.Segments)+len(e.Segments)-1)
			segs = append(segs, b.Segments...)
			segs = append(segs, e.Segments[1:]...)
			out.Segments = segs
		} else {
			out.Segments = append([]string(nil), e.Segments...)
		}
	}
	if e.HasArgs {
		args := make([]TypeExpr, 0, len(e.Args))
		for _, a := range e.Args {
			if a.IsPack && a.IsPlainNamePack() {
				// Expand a pack occurrence "Rest..." to the bound list.
				if b, ok := bindings[a.Segments[0]]; ok && b.packList != nil {
					args = append(args, b.packList...)
					continue
				}
			}
			args = append(args, a.Substitute(bindings))
		}
		out.Args = args
	}
	return out
}

// IsPlainNamePack reports a bare single-segment pack occurrence ("Rest...").
func (e TypeExpr) IsPlainNamePack() bool {
	return len(e.Segments) == 1 && !e.HasArgs && !e.IsWrapped() && e.IsPack
}

// BindPack returns a TypeExpr binding that expands to the given argument
// list when substituted at a pack occurrence.
func BindPack(args []TypeExpr) TypeExpr {
	return TypeExpr{packList: args}
}

// PackArgs returns the expansion list of a pack binding, or nil.
func (e TypeExpr) PackArgs() []TypeExpr { return e.packList }
