package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// DocHit is one documentation search result.
type DocHit struct {
	Symbol  string
	Kind    string
	Brief   string
	Matched int // query stems found in this symbol's documentation
	Total   int // query stems
}

// SearchDocumentation matches stemmed query words against the stemmed
// normalized documentation of every committed symbol. Results carry more
// matched stems first, ties broken by symbol name.
func (e *Engine) SearchDocumentation(query string, limit int) ([]DocHit, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	stems := stemWords(query)
	if len(stems) == 0 {
		return nil, nil
	}

	var hits []DocHit
	v.arena.Range(func(sym *types.Symbol) bool {
		if sym.Doc == nil {
			return true
		}
		docStems := make(map[string]bool)
		for _, s := range stemWords(sym.Doc.Text) {
			docStems[s] = true
		}
		matched := 0
		for _, s := range stems {
			if docStems[s] {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, DocHit{
				Symbol:  sym.DisplayName(),
				Kind:    sym.Kind.String(),
				Brief:   sym.Doc.Brief,
				Matched: matched,
				Total:   len(stems),
			})
		}
		return true
	})

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Matched != hits[j].Matched {
			return hits[i].Matched > hits[j].Matched
		}
		return hits[i].Symbol < hits[j].Symbol
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// stemWords lowercases, splits on non-alphanumeric runs, and stems each
// word. Single-letter fragments are dropped as noise.
func stemWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		out = append(out, porter2.Stem(f))
	}
	return out
}
