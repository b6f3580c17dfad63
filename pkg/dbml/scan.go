package dbml

import "strings"

// stripComments removes // and /* */ comments and collapses string
// literals that span lines, keeping the line count intact so errors
// report source line numbers.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	pendingNL := 0

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case strings.HasPrefix(src[i:], "'''"):
			end := strings.Index(src[i+3:], "'''")
			if end < 0 {
				end = len(src) - i - 3
			}
			pendingNL += strings.Count(src[i:i+3+end], "\n")
			b.WriteString("''")
			i += 3 + end + 3
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for j < len(src) && src[j] != c && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				j++
			}
			if j < len(src) && src[j] == c {
				j++
			}
			b.WriteString(src[i:j])
			i = j
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src) - i - 2
			}
			pendingNL += strings.Count(src[i:i+2+end], "\n")
			b.WriteByte(' ')
			i += 2 + end + 2
		case c == '\n':
			b.WriteByte('\n')
			for ; pendingNL > 0; pendingNL-- {
				b.WriteByte('\n')
			}
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// splitTop splits s on sep where sep is outside quotes, parens and brackets.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// indexTop returns the index of the first c in s outside quotes and parens,
// or -1.
func indexTop(s string, c byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == c && depth == 0:
			return i
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		}
	}
	return -1
}

// lastTop returns the index of the last c in s outside quotes, or -1.
func lastTop(s string, c byte) int {
	idx := -1
	var quote byte
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == c:
			idx = i
		}
	}
	return idx
}

// unquote strips one pair of matching quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// nextToken splits the leading identifier (possibly quoted) from s.
func nextToken(s string) (tok, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '"' || q == '\'' || q == '`' {
		if end := strings.IndexByte(s[1:], q); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
		return s[1:], ""
	}
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// keyword reports whether line starts with kw (case-insensitive) followed by
// a non-identifier character.
func keyword(line, kw string) bool {
	if len(line) < len(kw) || !strings.EqualFold(line[:len(kw)], kw) {
		return false
	}
	if len(line) == len(kw) {
		return true
	}
	c := line[len(kw)]
	return !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}
