package include

import (
	"fmt"
	"strings"
)

// scanCall parses "(arg, arg)" starting at or after pos (leading blanks are
// skipped). It returns the index after ")" and the top-level arguments.
func scanCall(text string, pos int) (int, []string, error) {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	if pos >= len(text) || text[pos] != '(' {
		return 0, nil, fmt.Errorf("%w: expected '('", ErrSyntax)
	}
	depth := 0
	var quote byte
	argStart := pos + 1
	var args []string
	for i := pos; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ']', '}':
			depth--
		case ')':
			depth--
			if depth == 0 {
				if last := strings.TrimSpace(text[argStart:i]); last != "" {
					args = append(args, last)
				}
				return i + 1, args, nil
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(text[argStart:i]))
				argStart = i + 1
			}
		}
	}
	return 0, nil, fmt.Errorf("%w: unterminated directive", ErrSyntax)
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], nil
	}
	return "", fmt.Errorf("%w: expected a quoted path, got %s", ErrSyntax, s)
}
