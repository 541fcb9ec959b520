// Package payload implements the restricted JSON subset used on the wire
// between the game server and the Discord dispatcher. It is deliberately
// not a general JSON parser: extraction locates named fields and returns
// not-found on anything malformed instead of failing hard, so callers can
// treat a missing field as absent.
package payload

import (
	"strconv"
	"strings"
	"unicode"
)

// Escape escapes backslashes, quotes and the common control characters in
// a string value. Other bytes pass through unchanged.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, ch := range []byte(s) {
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// findKeyStart locates `"key":` and returns the index just past the colon.
// A backslash-quoted form (`\"key\":`) is also accepted so that payloads
// which were themselves string-escaped still resolve.
func findKeyStart(payload, key string) (int, bool) {
	needle := `"` + key + `":`
	if idx := strings.Index(payload, needle); idx >= 0 {
		return idx + len(needle), true
	}
	escaped := `\"` + key + `\":`
	if idx := strings.Index(payload, escaped); idx >= 0 {
		return idx + len(escaped), true
	}
	return 0, false
}

// ExtractBlock returns the balanced-brace object following `"key":`.
// Braces inside string values do not affect depth counting.
func ExtractBlock(payload, key string) (string, bool) {
	pos, ok := findKeyStart(payload, key)
	if !ok {
		return "", false
	}

	start := strings.IndexByte(payload[pos:], '{')
	if start < 0 {
		return "", false
	}
	start += pos

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(payload); i++ {
		ch := payload[i]
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return payload[start : i+1], true
			}
		}
	}
	return "", false
}

// ExtractString returns the unescaped string value following `"key":`.
func ExtractString(payload, key string) (string, bool) {
	pos, ok := findKeyStart(payload, key)
	if !ok {
		return "", false
	}

	for pos < len(payload) && unicode.IsSpace(rune(payload[pos])) {
		pos++
	}
	if pos >= len(payload) {
		return "", false
	}

	// Opening quote, possibly itself escaped in double-encoded payloads.
	// When it is, the value also ends at an escaped quote.
	quoteEscaped := false
	if payload[pos] == '\\' && pos+1 < len(payload) && payload[pos+1] == '"' {
		quoteEscaped = true
		pos += 2
	} else if payload[pos] == '"' {
		pos++
	} else {
		return "", false
	}

	var b strings.Builder
	escape := false
	for ; pos < len(payload); pos++ {
		ch := payload[pos]
		if escape {
			switch ch {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				if quoteEscaped {
					return b.String(), true
				}
				b.WriteByte('"')
			default:
				b.WriteByte(ch)
			}
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			return b.String(), true
		}
		b.WriteByte(ch)
	}
	return "", false
}

// ExtractNumber returns the raw numeric token following `"key":`.
func ExtractNumber(payload, key string) (string, bool) {
	pos, ok := findKeyStart(payload, key)
	if !ok {
		return "", false
	}

	for pos < len(payload) && unicode.IsSpace(rune(payload[pos])) {
		pos++
	}
	end := strings.IndexAny(payload[pos:], ",}")
	if end < 0 {
		return "", false
	}
	out := strings.TrimSpace(payload[pos : pos+end])
	return out, out != ""
}

// ExtractUint parses the numeric field as an unsigned integer.
func ExtractUint(payload, key string) (uint64, bool) {
	raw, ok := ExtractNumber(payload, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
