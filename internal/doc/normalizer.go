// Package doc detects comment style and produces normalized, length-bounded
// documentation per symbol. Detection is purely syntactic; the normalized
// text preserves every literal byte of the comment body unmodified, up to
// the configured truncation limit.
package doc

import (
	"strings"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Normalizer converts raw comment text into DocComments.
type Normalizer struct {
	maxLen int
}

// NewNormalizer creates a normalizer. maxLen <= 0 selects the default
// truncation limit.
func NewNormalizer(maxLen int) *Normalizer {
	if maxLen <= 0 {
		maxLen = types.DefaultMaxDocLength
	}
	return &Normalizer{maxLen: maxLen}
}

// MaxLen returns the configured truncation limit.
func (n *Normalizer) MaxLen() int { return n.maxLen }

// Normalize parses one raw comment into a DocComment.
func (n *Normalizer) Normalize(raw string, loc types.Location) *types.DocComment {
	d := &types.DocComment{Raw: raw, Location: loc}

	body, style := stripMarkers(raw)
	d.Style = style

	var plain []string
	for _, line := range strings.Split(body, "\n") {
		tag, rest, ok := splitTag(line)
		if !ok {
			plain = append(plain, line)
			continue
		}
		switch tag {
		case "brief":
			d.Brief = strings.TrimSpace(rest)
			plain = append(plain, strings.TrimSpace(rest))
		case "param":
			name, text := splitFirstWord(rest)
			d.Params = append(d.Params, types.DocParam{Name: name, Text: text})
		case "return", "returns":
			d.Return = strings.TrimSpace(rest)
		case "see", "sa":
			d.See = append(d.See, strings.TrimSpace(rest))
		case "note":
			d.Notes = append(d.Notes, strings.TrimSpace(rest))
		default:
			plain = append(plain, line)
		}
	}
	if d.Brief == "" {
		for _, line := range plain {
			if t := strings.TrimSpace(line); t != "" {
				d.Brief = t
				break
			}
		}
	}

	text := strings.TrimSpace(strings.Join(plain, "\n"))
	if len(text) > n.maxLen {
		// Cut exactly at the limit; the marker does not count toward it,
		// so text at or under the limit is stored verbatim with no marker.
		d.Text = text[:n.maxLen] + types.DocTruncationMarker
		d.Truncated = true
	} else {
		d.Text = text
	}
	return d
}

// stripMarkers removes comment delimiters and per-line gutters, returning
// the body and the detected style.
func stripMarkers(raw string) (string, types.DocStyle) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "/*!"), strings.HasPrefix(trimmed, "/**"), strings.HasPrefix(trimmed, "/*"):
		style := types.DocDoxygenBlock
		switch {
		case strings.HasPrefix(trimmed, "/*!"):
			style = types.DocQtBang
			trimmed = trimmed[3:]
		case strings.HasPrefix(trimmed, "/**"):
			style = types.DocJavadoc
			trimmed = trimmed[3:]
		default:
			trimmed = trimmed[2:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "*/")
		lines := strings.Split(trimmed, "\n")
		for i, line := range lines {
			line = strings.TrimLeft(line, " \t")
			line = strings.TrimPrefix(line, "*")
			lines[i] = strings.TrimPrefix(line, " ")
		}
		body := strings.Join(lines, "\n")
		// Backslash tag convention inside a javadoc-shaped block is the Qt
		// backslash style.
		if style == types.DocJavadoc && usesBackslashTags(body) {
			style = types.DocQtBackslash
		}
		return body, style

	default:
		// Concatenated /// or //! lines.
		lines := strings.Split(trimmed, "\n")
		for i, line := range lines {
			line = strings.TrimLeft(line, " \t")
			line = strings.TrimPrefix(line, "///")
			line = strings.TrimPrefix(line, "//!")
			line = strings.TrimPrefix(line, "//")
			lines[i] = strings.TrimPrefix(line, " ")
		}
		return strings.Join(lines, "\n"), types.DocDoxygenLine
	}
}

func usesBackslashTags(body string) bool {
	for _, tag := range []string{`\brief`, `\param`, `\return`, `\see`, `\note`} {
		if strings.Contains(body, tag) {
			return true
		}
	}
	return false
}

// splitTag recognizes a structured tag at the start of a line, with either
// @ or \ prefix.
func splitTag(line string) (tag, rest string, ok bool) {
	t := strings.TrimSpace(line)
	if len(t) < 2 || (t[0] != '@' && t[0] != '\\') {
		return "", "", false
	}
	end := 1
	for end < len(t) && t[end] != ' ' && t[end] != '\t' {
		end++
	}
	return t[1:end], strings.TrimSpace(t[end:]), true
}

func splitFirstWord(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}
