package inherit

import (
	"sort"

	"github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Edges returns the declared base edges of a symbol in declaration order.
func (b *Builder) Edges(derived types.SymbolID) []types.InheritanceEdge {
	return b.edges[derived]
}

// Ancestors returns the full ancestor set of a symbol in path order.
// A virtual base appears exactly once no matter how many paths reach it;
// a non-virtual base reached over independent paths appears once per path
// with AmbiguousAccess set on every occurrence.
func (b *Builder) Ancestors(symbol types.SymbolID) []types.Ancestor {
	var out []types.Ancestor
	virtualSeen := make(map[types.SymbolID]int) // symbol → index in out
	occurrences := make(map[types.SymbolID]int)

	var walk func(id types.SymbolID, depth int, path map[types.SymbolID]bool)
	walk = func(id types.SymbolID, depth int, path map[types.SymbolID]bool) {
		if path[id] {
			return // cycle guard; frozen edges are excluded anyway
		}
		path[id] = true
		defer delete(path, id)

		for _, e := range b.edges[id] {
			if e.Status != types.EdgeResolved {
				continue
			}
			if e.Virtual {
				if _, seen := virtualSeen[e.Base]; !seen {
					virtualSeen[e.Base] = len(out)
					out = append(out, types.Ancestor{
						Symbol: e.Base, Access: e.Access, Virtual: true, Depth: depth,
					})
					walk(e.Base, depth+1, path)
				}
				continue
			}
			occurrences[e.Base]++
			out = append(out, types.Ancestor{
				Symbol: e.Base, Access: e.Access, Depth: depth,
			})
			walk(e.Base, depth+1, path)
		}
	}
	walk(symbol, 0, make(map[types.SymbolID]bool))

	for i := range out {
		if !out[i].Virtual && occurrences[out[i].Symbol] > 1 {
			out[i].AmbiguousAccess = true
		}
	}
	return out
}

// IsDerivedFrom reports reachability from a to b over resolved edges.
func (b *Builder) IsDerivedFrom(derived, base types.SymbolID) bool {
	if derived == base {
		return false
	}
	return b.reachable(derived, base, nil)
}

func (b *Builder) reachable(from, to types.SymbolID, visited map[types.SymbolID]bool) bool {
	if from == to {
		return true
	}
	if visited == nil {
		visited = make(map[types.SymbolID]bool)
	}
	if visited[from] {
		return false
	}
	visited[from] = true
	for _, e := range b.edges[from] {
		if e.Status == types.EdgeResolved && b.reachable(e.Base, to, visited) {
			return true
		}
	}
	return false
}

// Derived returns the direct derived classes of a base, sorted by handle
// for determinism.
func (b *Builder) Derived(base types.SymbolID) []types.SymbolID {
	seen := make(map[types.SymbolID]bool)
	var out []types.SymbolID
	for _, d := range b.reverse[base] {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransitiveDerived returns every symbol that derives from base, directly
// or through intermediates.
func (b *Builder) TransitiveDerived(base types.SymbolID) []types.SymbolID {
	seen := make(map[types.SymbolID]bool)
	var out []types.SymbolID
	var walk func(id types.SymbolID)
	walk = func(id types.SymbolID) {
		for _, d := range b.reverse[id] {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
				walk(d)
			}
		}
	}
	walk(base)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MostDerivedOverrider walks from the given symbol towards its bases along
// each path, most-derived first, and returns the first method symbol that
// declares the signature. A path that never overrides falls back to the
// base interface's own declaration; no declaration anywhere returns
// InvalidSymbol.
func (b *Builder) MostDerivedOverrider(symbol types.SymbolID, sig types.MethodSignature) types.SymbolID {
	key := sig.String()
	var walk func(id types.SymbolID, path map[types.SymbolID]bool) types.SymbolID
	walk = func(id types.SymbolID, path map[types.SymbolID]bool) types.SymbolID {
		if path[id] {
			return types.InvalidSymbol
		}
		path[id] = true
		defer delete(path, id)

		if m, ok := b.methods[id][key]; ok {
			return m
		}
		for _, e := range b.edges[id] {
			if e.Status != types.EdgeResolved {
				continue
			}
			if m := walk(e.Base, path); m != types.InvalidSymbol {
				return m
			}
		}
		return types.InvalidSymbol
	}
	return walk(symbol, make(map[types.SymbolID]bool))
}

// Overriders returns the method symbols of every class derived from the
// given one that declares the signature itself, nearest derivation first.
func (b *Builder) Overriders(symbol types.SymbolID, sig types.MethodSignature) []types.SymbolID {
	key := sig.String()
	type hit struct {
		method types.SymbolID
		depth  int
	}
	var hits []hit
	seen := make(map[types.SymbolID]bool)
	var walk func(id types.SymbolID, depth int)
	walk = func(id types.SymbolID, depth int) {
		for _, d := range b.reverse[id] {
			if seen[d] {
				continue
			}
			seen[d] = true
			if m, ok := b.methods[d][key]; ok {
				hits = append(hits, hit{method: m, depth: depth})
			}
			walk(d, depth+1)
		}
	}
	walk(symbol, 1)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].depth < hits[j].depth })
	out := make([]types.SymbolID, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.method)
	}
	return out
}

// MergeFrom commits a unit-local graph into this one, remapping symbol
// handles through the arena merge table. Identical edges from the same
// header seen by several units collapse to one.
func (b *Builder) MergeFrom(other *Builder, remap map[types.SymbolID]types.SymbolID) {
	mapID := func(id types.SymbolID) types.SymbolID {
		if mapped, ok := remap[id]; ok {
			return mapped
		}
		return id
	}
	for derived, list := range other.edges {
		d := mapID(derived)
		for _, e := range list {
			e.Derived = d
			e.Base = mapID(e.Base)
			if b.hasEdge(d, e) {
				continue
			}
			e.Ordinal = b.ordinals[d]
			b.ordinals[d]++
			b.edges[d] = append(b.edges[d], e)
			if e.Status == types.EdgeResolved {
				b.reverse[e.Base] = append(b.reverse[e.Base], d)
			}
		}
	}
	for class, table := range other.methods {
		c := mapID(class)
		for sig, method := range table {
			dst, ok := b.methods[c]
			if !ok {
				dst = make(map[string]types.SymbolID)
				b.methods[c] = dst
			}
			if _, exists := dst[sig]; !exists {
				dst[sig] = mapID(method)
			}
		}
	}
	b.errs = append(b.errs, other.errs...)
}

func (b *Builder) hasEdge(derived types.SymbolID, e types.InheritanceEdge) bool {
	for _, existing := range b.edges[derived] {
		if existing.Base == e.Base && existing.Virtual == e.Virtual &&
			existing.Access == e.Access && existing.BaseExpr.Equal(e.BaseExpr) {
			return true
		}
	}
	return false
}

// FreezeCycles demotes resolved edges that close a cycle in the merged
// graph. AddBase catches cycles visible within one unit, but an edge
// resolved against a forward declaration can only close a cycle once the
// defining unit is committed too, so the merged graph gets the same
// freeze: the closing edge becomes EdgeCycle with its base invalidated,
// a CyclicInheritance error is recorded, and the rest stays usable.
func (b *Builder) FreezeCycles() int {
	const (
		white = iota
		gray
		black
	)
	color := make(map[types.SymbolID]int)
	frozen := 0

	var visit func(id types.SymbolID)
	visit = func(id types.SymbolID) {
		color[id] = gray
		list := b.edges[id]
		for i := range list {
			if list[i].Status != types.EdgeResolved {
				continue
			}
			base := list[i].Base
			switch color[base] {
			case gray:
				list[i].Status = types.EdgeCycle
				list[i].Base = types.InvalidSymbol
				b.dropReverse(base, id)
				b.errs = append(b.errs, errors.NewCyclicInheritance(
					b.displayName(id),
					[]string{b.displayName(id), b.displayName(base)},
					list[i].Location))
				frozen++
			case white:
				visit(base)
			}
		}
		color[id] = black
	}

	roots := make([]types.SymbolID, 0, len(b.edges))
	for id := range b.edges {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	for _, id := range roots {
		if color[id] == white {
			visit(id)
		}
	}
	return frozen
}

func (b *Builder) dropReverse(base, derived types.SymbolID) {
	list := b.reverse[base]
	for i, d := range list {
		if d == derived {
			b.reverse[base] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Reresolve retries edges that stayed unresolved during unit processing
// against the merged arena: a base defined in another translation unit
// becomes visible once both units are committed.
func (b *Builder) Reresolve(lookup func(name types.QualifiedName) (types.SymbolID, bool)) int {
	fixed := 0
	for derived, list := range b.edges {
		for i, e := range list {
			if e.Status != types.EdgeUnresolved || e.BaseExpr.HasArgs || e.BaseExpr.IsWrapped() {
				continue
			}
			if id, ok := lookup(e.BaseExpr.Qualified()); ok {
				if id == derived || b.reachable(id, derived, nil) {
					continue
				}
				list[i].Status = types.EdgeResolved
				list[i].Base = id
				b.reverse[id] = append(b.reverse[id], derived)
				fixed++
			}
		}
	}
	return fixed
}
