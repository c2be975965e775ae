// Package scripts bundles JavaScript entry points with esbuild.
package scripts

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var languageTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget maps "es2015" and friends to an esbuild target.
func ParseTarget(raw string) (api.Target, error) {
	if raw == "" {
		return api.ESNext, nil
	}
	t, ok := languageTargets[strings.ToLower(raw)]
	if !ok {
		return 0, fmt.Errorf("unknown script target %q", raw)
	}
	return t, nil
}

// Bundler resolves an entry point and its imports into one IIFE script.
type Bundler struct {
	Target    api.Target
	Minify    bool
	Sourcemap bool
}

// Dev returns the bundler used for development builds.
func Dev(sourcemap bool) *Bundler {
	return &Bundler{Target: api.ESNext, Sourcemap: sourcemap}
}

// Prod returns a minifying bundler lowered to target.
func Prod(target string) (*Bundler, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &Bundler{Target: t, Minify: true}, nil
}

// Bundle builds entry. Imports resolve relative to the entry, with bare
// specifiers looked up in node_modules.
func (b *Bundler) Bundle(entry string) ([]byte, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, err
	}
	opts := api.BuildOptions{
		EntryPoints:       []string{abs},
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		Target:            b.Target,
		MinifyWhitespace:  b.Minify,
		MinifyIdentifiers: b.Minify,
		MinifySyntax:      b.Minify,
		LogLevel:          api.LogLevelSilent,
		AbsWorkingDir:     filepath.Dir(abs),
	}
	if b.Sourcemap {
		opts.Sourcemap = api.SourceMapInline
	}
	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return nil, messagesError(res.Errors)
	}
	for _, f := range res.OutputFiles {
		if strings.HasSuffix(f.Path, ".map") {
			continue
		}
		return f.Contents, nil
	}
	return nil, errors.New("esbuild produced no output")
}

// BundleName maps main.js to main.bundle.js.
func BundleName(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + ".bundle.js"
}

func messagesError(msgs []api.Message) error {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return errors.New(strings.Join(parts, "; "))
}
