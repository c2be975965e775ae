// Package webphtml wraps raster <img> tags in <picture> elements offering
// WebP sources at every configured pixel ratio.
package webphtml

import (
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

type density struct {
	ratio  int
	suffix string
}

// Wrapper is safe for concurrent use.
type Wrapper struct {
	exts      map[string]bool
	densities []density
}

// New returns a Wrapper for the given extensions (without dots) and a
// ratio to file-suffix map such as {1: "", 2: "@2x"}.
func New(extensions []string, retina map[int]string) *Wrapper {
	w := &Wrapper{exts: make(map[string]bool, len(extensions))}
	for _, e := range extensions {
		w.exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	for ratio, suffix := range retina {
		w.densities = append(w.densities, density{ratio: ratio, suffix: suffix})
	}
	if len(w.densities) == 0 {
		w.densities = []density{{ratio: 1}}
	}
	sort.Slice(w.densities, func(i, j int) bool { return w.densities[i].ratio < w.densities[j].ratio })
	return w
}

// Wrap returns doc with every eligible <img> outside a <picture> wrapped.
func (w *Wrapper) Wrap(doc string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	pictureDepth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return b.String(), nil
		}
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken && tt != html.EndTagToken {
			b.WriteString(raw)
			continue
		}
		tok := z.Token()
		switch {
		case tok.Data == "picture" && tt == html.StartTagToken:
			pictureDepth++
		case tok.Data == "picture" && tt == html.EndTagToken && pictureDepth > 0:
			pictureDepth--
		case tok.Data == "img" && tt != html.EndTagToken && pictureDepth == 0:
			if srcset, ok := w.sourceSet(attr(tok, "src")); ok {
				b.WriteString(`<picture><source type="image/webp" srcset="`)
				b.WriteString(html.EscapeString(srcset))
				b.WriteString(`">`)
				b.WriteString(raw)
				b.WriteString(`</picture>`)
				continue
			}
		}
		b.WriteString(raw)
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// sourceSet builds "a.webp 1x, a@2x.webp 2x" for src.
func (w *Wrapper) sourceSet(src string) (string, bool) {
	if src == "" || strings.HasPrefix(src, "data:") {
		return "", false
	}
	clean := src
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := path.Ext(clean)
	if !w.exts[strings.ToLower(strings.TrimPrefix(ext, "."))] {
		return "", false
	}
	base := strings.TrimSuffix(clean, ext)
	parts := make([]string, 0, len(w.densities))
	for _, d := range w.densities {
		parts = append(parts, base+d.suffix+".webp "+strconv.Itoa(d.ratio)+"x")
	}
	return strings.Join(parts, ", "), true
}
