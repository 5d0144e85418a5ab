package diffdoc

import (
	"strconv"
	"strings"
)

const devNull = "/dev/null"

// headerPaths extracts the old and new paths of a `diff --git` line.
// Unquoted paths containing spaces are split on the symmetric "a/X b/X"
// shape git emits when both sides name the same file.
func headerPaths(rest string) (oldPath, newPath string) {
	rest = strings.TrimSpace(rest)
	tokens := diffLineTokens(rest)
	if len(tokens) == 2 {
		return trimSide(tokens[0], "a/"), trimSide(tokens[1], "b/")
	}
	if !strings.Contains(rest, `"`) && strings.HasPrefix(rest, "a/") {
		if n := len(rest); n%2 == 1 {
			half := (n - 1) / 2
			if rest[half] == ' ' && strings.HasPrefix(rest[half+1:], "b/") &&
				rest[2:half] == rest[half+3:] {
				return rest[2:half], rest[half+3:]
			}
		}
		if i := strings.LastIndex(rest, " b/"); i > 0 {
			return rest[2:i], rest[i+3:]
		}
	}
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return trimSide(tokens[0], "a/"), ""
	default:
		return trimSide(tokens[0], "a/"), trimSide(tokens[len(tokens)-1], "b/")
	}
}

// pathLineValue extracts the path of a "--- " or "+++ " line, dropping a
// trailing tab-separated timestamp and the a/ or b/ prefix.
func pathLineValue(rest, side string) string {
	if strings.HasPrefix(rest, `"`) {
		if q, err := strconv.QuotedPrefix(rest); err == nil {
			if u, err := strconv.Unquote(q); err == nil {
				return trimSide(u, side)
			}
		}
	}
	if i := strings.IndexByte(rest, '\t'); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimRight(rest, " ")
	if rest == devNull {
		return devNull
	}
	return trimSide(rest, side)
}

// plainPathValue unquotes the argument of "rename from" style lines.
func plainPathValue(rest string) string {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		if u, err := strconv.Unquote(rest); err == nil {
			return u
		}
	}
	return rest
}

func trimSide(token, side string) string {
	if token == devNull {
		return token
	}
	return strings.TrimPrefix(token, side)
}

// diffLineTokens splits s on blanks, honouring double-quoted tokens with
// backslash escapes.
func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			if q, err := strconv.QuotedPrefix(s); err == nil {
				if u, err := strconv.Unquote(q); err == nil {
					tokens = append(tokens, u)
					s = s[len(q):]
					continue
				}
			}
			var buf strings.Builder
			escaped := false
			i := 1
			for i < len(s) {
				ch := s[i]
				if escaped {
					buf.WriteByte(ch)
					escaped = false
					i++
					continue
				}
				if ch == '\\' {
					escaped = true
					i++
					continue
				}
				if ch == '"' {
					i++
					break
				}
				buf.WriteByte(ch)
				i++
			}
			tokens = append(tokens, buf.String())
			s = s[i:]
			continue
		}
		j := 0
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}
