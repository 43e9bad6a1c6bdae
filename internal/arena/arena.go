// Package arena owns the append-only symbol store shared by every engine
// component. Handles are stable uint32 IDs; symbols are never destroyed
// during a run. During per-unit parsing each worker writes to its own local
// arena; the merge phase commits local symbols into the shared arena under
// a single writer lock, after which reads need no locking.
package arena

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Arena is the symbol store. Lookup is keyed by qualified name + kind so
// repeated forward declarations collapse into one Symbol.
type Arena struct {
	mu     sync.RWMutex
	data   []*types.Symbol             // index 0 reserved so SymbolID 0 stays invalid
	byName map[uint64][]types.SymbolID // xxhash(name|kind) → candidate handles
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{
		data:   make([]*types.Symbol, 1), // slot 0 = InvalidSymbol
		byName: make(map[uint64][]types.SymbolID),
	}
}

// nameKey hashes a qualified name and kind into the index key.
func nameKey(name types.QualifiedName, kind types.SymbolKind) uint64 {
	var h xxhash.Digest
	h.Reset()
	for _, seg := range name {
		_, _ = h.WriteString(seg)
		_, _ = h.WriteString("::")
	}
	_, _ = h.Write([]byte{byte(kind)})
	return h.Sum64()
}

// Declare returns the handle for the given qualified name and kind,
// creating the symbol on first sight. Re-declaration returns the existing
// handle with IsDefinition OR'd in: the definition wins, it never forks a
// second Symbol.
func (a *Arena) Declare(name types.QualifiedName, kind types.SymbolKind, isDefinition bool, loc types.Location, unit types.UnitID) types.SymbolID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.declareLocked(name, kind, isDefinition, loc, unit)
}

func (a *Arena) declareLocked(name types.QualifiedName, kind types.SymbolKind, isDefinition bool, loc types.Location, unit types.UnitID) types.SymbolID {
	key := nameKey(name, kind)
	for _, id := range a.byName[key] {
		sym := a.data[id]
		if sym.Kind == kind && sym.Name.Equal(name) {
			if isDefinition && !sym.IsDefinition {
				sym.IsDefinition = true
				sym.DefLocation = loc
			}
			return id
		}
	}

	id := types.SymbolID(len(a.data))
	sym := &types.Symbol{
		ID:           id,
		Name:         append(types.QualifiedName(nil), name...),
		Kind:         kind,
		IsDefinition: isDefinition,
		Location:     loc,
		Unit:         unit,
	}
	if isDefinition {
		sym.DefLocation = loc
	}
	a.data = append(a.data, sym)
	a.byName[key] = append(a.byName[key], id)
	return id
}

// Get returns the symbol for a handle, or nil for InvalidSymbol and
// out-of-range handles.
func (a *Arena) Get(id types.SymbolID) *types.Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id == types.InvalidSymbol || int(id) >= len(a.data) {
		return nil
	}
	return a.data[id]
}

// Lookup finds an existing symbol by qualified name and kind without
// creating it.
func (a *Arena) Lookup(name types.QualifiedName, kind types.SymbolKind) (types.SymbolID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	key := nameKey(name, kind)
	for _, id := range a.byName[key] {
		sym := a.data[id]
		if sym.Kind == kind && sym.Name.Equal(name) {
			return id, true
		}
	}
	return types.InvalidSymbol, false
}

// LookupAnyKind finds symbols matching a qualified name regardless of kind.
// Used by qualified lookup where the reference doesn't say what it names.
func (a *Arena) LookupAnyKind(name types.QualifiedName) []types.SymbolID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []types.SymbolID
	for _, sym := range a.data[1:] {
		if sym.Name.Equal(name) {
			out = append(out, sym.ID)
		}
	}
	return out
}

// Len returns the number of live symbols (excluding the reserved slot).
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data) - 1
}

// Range calls fn for every symbol in handle order. fn must not mutate the
// arena.
func (a *Arena) Range(fn func(*types.Symbol) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, sym := range a.data[1:] {
		if !fn(sym) {
			return
		}
	}
}

// Merge commits a unit-local arena into this one under the writer lock and
// returns a handle remap table (local → merged). Duplicate forward
// declarations across units collapse; definition flags OR together.
func (a *Arena) Merge(local *Arena) map[types.SymbolID]types.SymbolID {
	remap := make(map[types.SymbolID]types.SymbolID, local.Len())
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, sym := range local.data[1:] {
		id := a.declareLocked(sym.Name, sym.Kind, sym.IsDefinition, sym.Location, sym.Unit)
		merged := a.data[id]
		if sym.IsDefinition && merged.DefLocation.File == "" {
			merged.DefLocation = sym.DefLocation
		}
		if merged.Doc == nil && sym.Doc != nil {
			merged.Doc = sym.Doc
		}
		if len(merged.TemplateParams) == 0 && len(sym.TemplateParams) > 0 {
			merged.TemplateParams = sym.TemplateParams
		}
		if merged.Access == types.AccessPublic && sym.Access != types.AccessPublic {
			merged.Access = sym.Access
		}
		remap[sym.ID] = id
	}
	// Owner scopes refer to handles; fix them up after all symbols have
	// their merged identity.
	for _, sym := range local.data[1:] {
		if sym.OwnerScope != types.InvalidSymbol {
			merged := a.data[remap[sym.ID]]
			if merged.OwnerScope == types.InvalidSymbol {
				merged.OwnerScope = remap[sym.OwnerScope]
			}
		}
	}
	return remap
}

// SetOwner records the enclosing scope symbol. Back-reference only; the
// arena owns the symbol, the scope does not.
func (a *Arena) SetOwner(id, owner types.SymbolID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id != types.InvalidSymbol && int(id) < len(a.data) {
		if a.data[id].OwnerScope == types.InvalidSymbol {
			a.data[id].OwnerScope = owner
		}
	}
}

// AttachDoc stores normalized documentation on a symbol. First writer wins;
// the same header parsed by two units carries identical text anyway.
func (a *Arena) AttachDoc(id types.SymbolID, doc *types.DocComment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id != types.InvalidSymbol && int(id) < len(a.data) && a.data[id].Doc == nil {
		a.data[id].Doc = doc
	}
}

// AllNames returns every distinct qualified name in the arena, for
// suggestion candidates.
func (a *Arena) AllNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	seen := make(map[string]struct{}, len(a.data))
	out := make([]string, 0, len(a.data))
	for _, sym := range a.data[1:] {
		n := sym.Name.String()
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
