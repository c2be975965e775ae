// Package include expands @@include, @@include_once, @@loop and @@var
// markers in HTML sources. Paths resolve relative to the including file.
package include

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/sen"
)

// DefaultPrefix marks every directive and variable.
const DefaultPrefix = "@@"

var (
	// ErrCycle is returned when a file includes itself, directly or not.
	ErrCycle = errors.New("include cycle")
	// ErrSyntax is returned for a directive that cannot be parsed.
	ErrSyntax = errors.New("include syntax")
)

// Context holds the variables visible to a file.
type Context map[string]any

func (c Context) with(extra map[string]any) Context {
	out := make(Context, len(c)+len(extra))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Expander expands directives. The zero value uses DefaultPrefix and os.ReadFile.
type Expander struct {
	Prefix   string
	ReadFile func(path string) ([]byte, error)
}

type state struct {
	stack []string
	once  map[string]bool
}

// Expand processes content read from path with an empty context.
func (e *Expander) Expand(path string, content []byte) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	st := &state{once: map[string]bool{abs: true}}
	out, err := e.expand(st, abs, string(content), Context{})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (e *Expander) prefix() string {
	if e.Prefix == "" {
		return DefaultPrefix
	}
	return e.Prefix
}

func (e *Expander) read(path string) ([]byte, error) {
	if e.ReadFile != nil {
		return e.ReadFile(path)
	}
	return os.ReadFile(path)
}

func (e *Expander) expand(st *state, path, text string, ctx Context) (string, error) {
	for _, p := range st.stack {
		if p == path {
			return "", fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(st.stack, path), " -> "))
		}
	}
	st.stack = append(st.stack, path)
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	text = e.substituteVars(text, ctx)

	prefix := e.prefix()
	var b strings.Builder
	for {
		idx, name := e.nextDirective(text)
		if idx < 0 {
			b.WriteString(text)
			return b.String(), nil
		}
		b.WriteString(text[:idx])
		callStart := idx + len(prefix) + len(name)
		end, args, err := scanCall(text, callStart)
		if err != nil {
			return "", fmt.Errorf("%s: %s%s: %w", filepath.Base(path), prefix, name, err)
		}
		expanded, err := e.directive(st, path, name, args, ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(expanded)
		text = text[end:]
	}
}

var directives = []string{"include_once", "include", "loop"}

// nextDirective finds the next prefix+name followed by optional spaces and "(".
func (e *Expander) nextDirective(text string) (int, string) {
	prefix := e.prefix()
	offset := 0
	for {
		i := strings.Index(text[offset:], prefix)
		if i < 0 {
			return -1, ""
		}
		at := offset + i
		rest := text[at+len(prefix):]
		for _, d := range directives {
			if strings.HasPrefix(rest, d) && strings.HasPrefix(strings.TrimLeft(rest[len(d):], " \t"), "(") {
				return at, d
			}
		}
		offset = at + len(prefix)
	}
}

func (e *Expander) directive(st *state, from, name string, args []string, ctx Context) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s needs a path", ErrSyntax, name)
	}
	target, err := unquote(args[0])
	if err != nil {
		return "", err
	}
	target = filepath.Join(filepath.Dir(from), filepath.FromSlash(target))

	switch name {
	case "include", "include_once":
		if name == "include_once" {
			if st.once[target] {
				return "", nil
			}
			st.once[target] = true
		}
		data := map[string]any{}
		if len(args) > 1 {
			if data, err = parseObject(args[1]); err != nil {
				return "", err
			}
		}
		return e.includeFile(st, target, ctx.with(data))
	case "loop":
		if len(args) < 2 {
			return "", fmt.Errorf("%w: loop needs data", ErrSyntax)
		}
		items, err := e.loopItems(from, args[1])
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return "", fmt.Errorf("%w: loop item %d is not an object", ErrSyntax, i)
			}
			part, err := e.includeFile(st, target, ctx.with(obj))
			if err != nil {
				return "", err
			}
			b.WriteString(part)
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("%w: unknown directive %s", ErrSyntax, name)
}

func (e *Expander) includeFile(st *state, path string, ctx Context) (string, error) {
	content, err := e.read(path)
	if err != nil {
		return "", fmt.Errorf("include %s: %w", path, err)
	}
	return e.expand(st, path, string(content), ctx)
}

// loopItems accepts an inline array or a quoted path to a JSON file.
func (e *Expander) loopItems(from, arg string) ([]any, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "'") || strings.HasPrefix(arg, `"`) {
		rel, err := unquote(arg)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(filepath.Dir(from), filepath.FromSlash(rel))
		raw, err := e.read(path)
		if err != nil {
			return nil, fmt.Errorf("loop data %s: %w", path, err)
		}
		arg = string(raw)
	}
	v, err := sen.Parse([]byte(arg))
	if err != nil {
		return nil, fmt.Errorf("%w: loop data: %v", ErrSyntax, err)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: loop data is not an array", ErrSyntax)
	}
	return items, nil
}

func parseObject(raw string) (map[string]any, error) {
	v, err := sen.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: include parameters: %v", ErrSyntax, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: include parameters must be an object", ErrSyntax)
	}
	return obj, nil
}

// substituteVars replaces prefix+name (name may be a dotted path) with the
// value from ctx. Unknown names are left as written.
func (e *Expander) substituteVars(text string, ctx Context) string {
	if len(ctx) == 0 {
		return text
	}
	prefix := e.prefix()
	var b strings.Builder
	for {
		i := strings.Index(text, prefix)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		rest := text[i+len(prefix):]
		n := 0
		for n < len(rest) && isVarChar(rest[n]) {
			n++
		}
		// a trailing dot belongs to the surrounding text
		for n > 0 && rest[n-1] == '.' {
			n--
		}
		if v, ok := lookup(ctx, rest[:n]); ok {
			b.WriteString(v)
		} else {
			b.WriteString(prefix + rest[:n])
		}
		text = rest[n:]
	}
}

func isVarChar(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func lookup(ctx Context, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if v, ok := ctx[name]; ok {
		return stringify(v), true
	}
	if !strings.Contains(name, ".") {
		return "", false
	}
	x, err := jp.ParseString(name)
	if err != nil {
		return "", false
	}
	found := x.Get(map[string]any(ctx))
	if len(found) == 0 {
		return "", false
	}
	return stringify(found[0]), true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any, []any:
		return sen.String(t, &sen.Options{Sort: true})
	default:
		return fmt.Sprint(t)
	}
}
