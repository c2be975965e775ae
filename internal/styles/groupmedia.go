package styles

import (
	"bytes"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type mediaGroup struct {
	query  string
	bodies []string
	order  int
}

var (
	minWidth = regexp.MustCompile(`^(?:(?:only\s+)?(?:screen|all)\s+and\s+)?\(\s*min-width\s*:\s*([\d.]+)px\s*\)$`)
	maxWidth = regexp.MustCompile(`^(?:(?:only\s+)?(?:screen|all)\s+and\s+)?\(\s*max-width\s*:\s*([\d.]+)px\s*\)$`)
)

// GroupMedia moves every top-level @media block to the end of the sheet,
// merging blocks with the same query. min-width queries come first in
// ascending order, then max-width queries in descending order, then the rest
// in order of first appearance.
func GroupMedia(src []byte) ([]byte, error) {
	l := css.NewLexer(parse.NewInputBytes(src))
	var rest bytes.Buffer
	groups := map[string]*mediaGroup{}
	var list []*mediaGroup

	depth := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != io.EOF {
				return nil, err
			}
			break
		}
		switch {
		case tt == css.LeftBraceToken:
			depth++
		case tt == css.RightBraceToken:
			depth--
		case tt == css.AtKeywordToken && depth == 0 && strings.EqualFold(string(data), "@media"):
			query, body, err := readMediaBlock(l)
			if err != nil {
				return nil, err
			}
			if query == "" {
				rest.WriteString("@media")
				rest.WriteString(body)
				continue
			}
			g, ok := groups[query]
			if !ok {
				g = &mediaGroup{query: query, order: len(list)}
				groups[query] = g
				list = append(list, g)
			}
			if b := strings.TrimSpace(body); b != "" {
				g.bodies = append(g.bodies, b)
			}
			continue
		}
		rest.Write(data)
	}
	if len(list) == 0 {
		return src, nil
	}

	sort.SliceStable(list, func(i, j int) bool { return lessMedia(list[i], list[j]) })
	out := bytes.TrimRight(rest.Bytes(), " \t\r\n")
	var b bytes.Buffer
	b.Write(out)
	for _, g := range list {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("@media ")
		b.WriteString(g.query)
		b.WriteString(" {\n  ")
		b.WriteString(strings.Join(g.bodies, "\n  "))
		b.WriteString("\n}")
	}
	b.WriteString("\n")
	return b.Bytes(), nil
}

// readMediaBlock consumes a @media prelude and its block, returning the
// normalized query and the raw block content. An @media without a block
// returns an empty query and the consumed text.
func readMediaBlock(l *css.Lexer) (string, string, error) {
	var prelude, body strings.Builder
	depth := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != io.EOF {
				return "", "", err
			}
			return "", prelude.String() + body.String(), nil
		}
		if depth == 0 {
			switch tt {
			case css.LeftBraceToken:
				depth = 1
				continue
			case css.SemicolonToken:
				prelude.Write(data)
				return "", prelude.String(), nil
			}
			prelude.Write(data)
			continue
		}
		switch tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return strings.Join(strings.Fields(prelude.String()), " "), body.String(), nil
			}
		}
		body.Write(data)
	}
}

func widthOf(re *regexp.Regexp, q string) (float64, bool) {
	m := re.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

func mediaRank(g *mediaGroup) (int, float64) {
	if v, ok := widthOf(minWidth, g.query); ok {
		return 0, v
	}
	if v, ok := widthOf(maxWidth, g.query); ok {
		return 1, -v
	}
	return 2, 0
}

func lessMedia(a, b *mediaGroup) bool {
	ra, va := mediaRank(a)
	rb, vb := mediaRank(b)
	if ra != rb {
		return ra < rb
	}
	if ra == 2 {
		return a.order < b.order
	}
	return va < vb
}
