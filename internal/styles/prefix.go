package styles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/sitepipe/internal/targets"
)

// Prefixer adds the vendor prefixes and syntax lowering the configured
// browser targets need.
type Prefixer struct {
	engines []api.Engine
}

// NewPrefixer parses targets such as "chrome87" or "safari13".
func NewPrefixer(list []string) (*Prefixer, error) {
	engines, err := targets.Parse(list)
	if err != nil {
		return nil, err
	}
	return &Prefixer{engines: engines}, nil
}

func (p *Prefixer) Prefix(file string, css []byte) ([]byte, error) {
	res := api.Transform(string(css), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    p.engines,
		Sourcefile: file,
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		return nil, messagesError(res.Errors)
	}
	return res.Code, nil
}

// messagesError flattens esbuild diagnostics into one error.
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
