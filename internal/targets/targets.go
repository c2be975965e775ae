// Package targets parses browser target lists such as "chrome87" into
// esbuild engine constraints.
package targets

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var engines = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"safari":  api.EngineSafari,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"ie":      api.EngineIE,
}

// Parse converts entries of the form <engine><version>.
func Parse(list []string) ([]api.Engine, error) {
	out := make([]api.Engine, 0, len(list))
	for _, raw := range list {
		t := strings.ToLower(strings.TrimSpace(raw))
		i := strings.IndexAny(t, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("target %q: expected <engine><version>", raw)
		}
		name, ok := engines[t[:i]]
		if !ok {
			return nil, fmt.Errorf("target %q: unknown engine %q", raw, t[:i])
		}
		out = append(out, api.Engine{Name: name, Version: t[i:]})
	}
	return out, nil
}

// Valid reports whether every entry parses.
func Valid(list []string) error {
	_, err := Parse(list)
	return err
}
