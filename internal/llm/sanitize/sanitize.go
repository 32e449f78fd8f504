// Package sanitize turns noisy model output into parseable JSON. Local models
// wrap JSON in markdown fences, leak LaTeX escapes into string values, use
// smart quotes, and leave trailing commas; everything here exists to undo that
// without guessing at content.
package sanitize

import (
	"strings"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
)

// Sanitize normalizes raw model output before JSON extraction: strips
// markdown fence markers, removes LaTeX \( \) \[ \] markers, normalizes
// smart quotes, drops trailing commas, and collapses whitespace runs.
func Sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = stripLaTeXMarkers(s)
	s = quoteReplacer.Replace(s)
	s = RemoveTrailingCommas(s)
	s = collapseWhitespace(s)
	return strings.TrimSpace(s)
}

func stripLaTeXMarkers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '(', ')', '[', ']':
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// RemoveTrailingCommas drops commas that immediately precede a closing
// brace or bracket. The scan is string-aware so commas inside string
// literals are never touched.
func RemoveTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			b.WriteByte(ch)
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
			b.WriteByte(ch)
		case ch == '"':
			inString = !inString
			b.WriteByte(ch)
		case ch == ',' && !inString:
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // trailing comma, drop it
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// IsTruncated reports whether output looks cut off: the last non-whitespace
// character is a structural JSON token, or braces/brackets/strings do not
// balance. Backslash escapes inside strings are honored so structural
// characters in string literals never affect the counts.
func IsTruncated(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}

	switch trimmed[len(trimmed)-1] {
	case '{', '[', ':', '"', ',':
		return true
	}

	braces, brackets := 0, 0
	inString := false
	escaped := false
	for i := 0; i < len(trimmed); i++ {
		ch := trimmed[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			braces++
		case ch == '}':
			braces--
		case ch == '[':
			brackets++
		case ch == ']':
			brackets--
		}
	}
	return braces != 0 || brackets != 0 || inString
}

// FixUnescapedBackslashes re-escapes any backslash inside a string literal
// that is not followed by a valid JSON escape character. LaTeX notation like
// \pmod or \frac inside string values is the usual culprit.
func FixUnescapedBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	inString := false
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '\\' && inString:
			if i+1 >= len(s) {
				b.WriteString(`\\`) // trailing backslash
				i++
				continue
			}
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				b.WriteByte('\\')
				b.WriteByte(next)
				i += 2
			case 'u':
				b.WriteString(`\u`)
				i += 2
				for j := 0; j < 4 && i < len(s); j++ {
					b.WriteByte(s[i])
					i++
				}
			default:
				// Invalid escape: escape the backslash itself.
				b.WriteString(`\\`)
				b.WriteByte(next)
				i += 2
			}
		case ch == '"':
			inString = !inString
			b.WriteByte(ch)
			i++
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// objectSpan scans forward from s[start] (which must be '{') and returns the
// index just past the matching close brace, honoring strings and escapes.
// ok is false if the object never closes.
func objectSpan(s string, start int) (end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(s), false
}

// FirstObject returns the first brace-balanced {...} span in s. If an object
// opens but never closes, the remainder from the open brace is returned. If
// there is no object at all, s is returned unchanged.
func FirstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	end, _ := objectSpan(s, start)
	return s[start:end]
}

func validStructure(s string) bool {
	braces, brackets := 0, 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			braces++
		case ch == '}':
			if braces == 0 {
				return false
			}
			braces--
		case ch == '[':
			brackets++
		case ch == ']':
			if brackets == 0 {
				return false
			}
			brackets--
		}
	}
	return braces == 0 && brackets == 0 && !inString
}
