package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON locates the substring of text that is valid JSON, trying a
// sequence of strategies and short-circuiting on the first that parses:
//
//  1. the trimmed text as-is
//  2. the content of a markdown code fence (optionally tagged "json"),
//     brace-matching from the first '{' when the fence is unterminated
//  3. brace-matching from the start when the text begins with '{'
//  4. a single linear scan tracking fences, strings and brace depth to find
//     the largest well-formed {...} span
//  5. an escape-repair pass re-escaping invalid backslash escapes
//  6. aggressive line filtering
//
// All scanning treats a backslash inside a string as escaping the next
// character. On total failure the error describes the text without guessing
// at intent.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	// Strategy 1: already clean JSON.
	if len(trimmed) > 0 && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	// Strategy 2: fenced code block.
	if strings.HasPrefix(trimmed, "```") {
		if out, ok := extractFenced(trimmed); ok {
			return out, nil
		}
	}

	// Strategy 3: text starts with an object.
	if strings.HasPrefix(trimmed, "{") {
		if end, ok := objectSpan(trimmed, 0); ok {
			if out, ok := tryCandidate(trimmed[:end]); ok {
				return out, nil
			}
		}
	}

	// Strategy 4: scan the whole text for the largest well-formed span.
	span := scanSpan(text)
	cleaned := RemoveTrailingCommas(strings.TrimSpace(span))
	if cleaned != "" && json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	// Strategy 5: re-escape invalid backslash escapes and retry.
	fixed := FixUnescapedBackslashes(cleaned)
	if fixed != "" && json.Valid([]byte(fixed)) {
		return fixed, nil
	}

	// Retry brace boundaries inside the cleaned text.
	if start := strings.IndexByte(cleaned, '{'); start >= 0 {
		if end, ok := objectSpan(cleaned, start); ok {
			candidate := cleaned[start:end]
			if validStructure(candidate) && json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		if end := strings.LastIndexByte(cleaned, '}'); end > start {
			candidate := cleaned[start : end+1]
			if validStructure(candidate) && json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	// Strategy 6: aggressive line filtering.
	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		kept = append(kept, t)
	}
	aggressive := strings.Join(kept, "")
	if aggressive != "" && json.Valid([]byte(aggressive)) {
		return aggressive, nil
	}

	return "", fmt.Errorf(
		"failed to extract valid JSON from response: text length %d, head: %q, tail: %q",
		len(text), headPreview(text, 500), tailPreview(text, 200))
}

// tryCandidate accepts a span as-is or after trailing-comma cleanup.
func tryCandidate(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}
	cleaned := RemoveTrailingCommas(candidate)
	if json.Valid([]byte(cleaned)) {
		return cleaned, true
	}
	return "", false
}

func extractFenced(trimmed string) (string, bool) {
	after := trimmed[3:] // past the opening ```
	after = strings.TrimPrefix(after, "json")
	after = strings.TrimLeft(after, " \t\r\n")

	if close := strings.Index(after, "```"); close >= 0 {
		return tryCandidate(after[:close])
	}

	// Unterminated fence: brace-match from the first '{'.
	if strings.HasPrefix(after, "{") {
		if end, ok := objectSpan(after, 0); ok {
			return tryCandidate(after[:end])
		}
	}
	return "", false
}

// scanSpan performs a single pass over text, tracking code-fence boundaries,
// string state and brace depth at once, and returns the first complete {...}
// span. A fence closing while an object is still open ends the span there;
// an object still open at end of text yields the remainder.
func scanSpan(text string) string {
	inFence := false
	start := -1
	depth := 0
	inString := false
	escaped := false
	bestStart, bestEnd := -1, -1

	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], "```") {
			if inFence && start >= 0 && bestEnd < 0 {
				bestStart, bestEnd = start, i
			}
			inFence = !inFence
			i += 3
			if inFence && strings.HasPrefix(text[i:], "json") {
				i += 4
			}
			continue
		}

		ch := text[i]
		if start < 0 {
			if ch == '{' {
				start = i
				depth = 1
				inString = false
				escaped = false
			}
			i++
			continue
		}

		if escaped {
			escaped = false
			i++
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
			if depth == 0 && bestEnd < 0 {
				bestStart, bestEnd = start, i+1
			}
		}
		i++
	}

	if bestEnd >= 0 {
		return text[bestStart:bestEnd]
	}
	if start >= 0 {
		return text[start:]
	}
	return strings.TrimSpace(text)
}

func headPreview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func tailPreview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
