// Package minify wraps tdewolff/minify with the media types the build
// emits: HTML (with inline CSS, JS and SVG), CSS and SVG.
package minify

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

const (
	MediaHTML = "text/html"
	MediaCSS  = "text/css"
	MediaSVG  = "image/svg+xml"
	MediaJS   = "application/javascript"
)

var jsMedia = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// Minifier is safe for concurrent use.
type Minifier struct {
	m *minify.M
}

// New returns a Minifier. HTML output keeps document tags, end tags and
// attribute quotes so the markup stays readable by downstream tooling.
func New() *Minifier {
	m := minify.New()
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.Add(MediaCSS, &css.Minifier{})
	m.Add(MediaSVG, &svg.Minifier{})
	m.AddRegexp(jsMedia, &js.Minifier{})
	return &Minifier{m: m}
}

func (n *Minifier) HTML(b []byte) ([]byte, error) { return n.m.Bytes(MediaHTML, b) }

func (n *Minifier) CSS(b []byte) ([]byte, error) { return n.m.Bytes(MediaCSS, b) }

func (n *Minifier) SVG(b []byte) ([]byte, error) { return n.m.Bytes(MediaSVG, b) }
