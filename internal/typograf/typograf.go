// Package typograf applies locale-aware typography to the text of HTML
// documents. Markup, attribute values, code-like elements and configured
// safe regions are left byte-for-byte intact.
package typograf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// SafeTag is an opening/closing marker pair whose content is never touched.
type SafeTag struct {
	Open  string
	Close string
}

type locale struct {
	outerOpen, outerClose string
	innerOpen, innerClose string
	dash                  string
}

var (
	ukrainian = locale{"«", "»", "„", "“", "\u00a0— "}
	english   = locale{"“", "”", "‘", "’", "\u2009—\u2009"}
	german    = locale{"„", "“", "‚", "‘", "\u00a0– "}

	supported = []language.Tag{language.Ukrainian, language.Russian, language.AmericanEnglish, language.BritishEnglish, language.German}
	styles    = map[language.Tag]locale{
		language.Ukrainian:       ukrainian,
		language.Russian:         ukrainian,
		language.AmericanEnglish: english,
		language.BritishEnglish:  english,
		language.German:          german,
	}
	matcher = language.NewMatcher(supported)
)

// skipElements hold code or raw text that typography must not change.
var skipElements = map[string]bool{
	"script": true, "style": true, "pre": true, "code": true, "textarea": true, "kbd": true, "samp": true,
}

// Typograf is safe for concurrent use.
type Typograf struct {
	main     locale
	safeTags []SafeTag
}

// New builds a Typograf. The first locale selects quote and dash style; all
// locales must be recognised.
func New(locales []string, safeTags []SafeTag) (*Typograf, error) {
	if len(locales) == 0 {
		return nil, errors.New("typograf: at least one locale is required")
	}
	var main locale
	for i, raw := range locales {
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("typograf: locale %q: %w", raw, err)
		}
		_, idx, conf := matcher.Match(tag)
		if conf == language.No {
			return nil, fmt.Errorf("typograf: unsupported locale %q", raw)
		}
		if i == 0 {
			main = styles[supported[idx]]
		}
	}
	return &Typograf{main: main, safeTags: safeTags}, nil
}

// Execute returns doc with typography applied to its text nodes.
func (t *Typograf) Execute(doc string) (string, error) {
	protected, regions := t.protect(doc)

	z := html.NewTokenizer(strings.NewReader(protected))
	var b strings.Builder
	var skip []string
	quotes := &quoteState{loc: t.main}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return restore(b.String(), regions), nil
		case html.TextToken:
			raw := string(z.Raw())
			if len(skip) > 0 {
				b.WriteString(raw)
				continue
			}
			b.WriteString(t.text(raw, quotes))
		case html.StartTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			if skipElements[string(name)] {
				skip = append(skip, string(name))
			}
		case html.EndTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			if n := len(skip); n > 0 && skip[n-1] == string(name) {
				skip = skip[:n-1]
			}
		default:
			b.Write(z.Raw())
		}
	}
}

const (
	placeholderOpen  = '\ue000'
	placeholderClose = '\ue001'
)

// protect swaps every safe region for an inert placeholder.
func (t *Typograf) protect(doc string) (string, []string) {
	var regions []string
	for _, st := range t.safeTags {
		var b strings.Builder
		rest := doc
		for {
			i := strings.Index(rest, st.Open)
			if i < 0 {
				break
			}
			j := strings.Index(rest[i+len(st.Open):], st.Close)
			if j < 0 {
				break
			}
			end := i + len(st.Open) + j + len(st.Close)
			b.WriteString(rest[:i])
			b.WriteRune(placeholderOpen)
			b.WriteString(strconv.Itoa(len(regions)))
			b.WriteRune(placeholderClose)
			regions = append(regions, rest[i:end])
			rest = rest[end:]
		}
		b.WriteString(rest)
		doc = b.String()
	}
	return doc, regions
}

func restore(doc string, regions []string) string {
	// later regions may sit inside earlier ones' replacements, so restore in reverse
	for i := len(regions) - 1; i >= 0; i-- {
		ph := string(placeholderOpen) + strconv.Itoa(i) + string(placeholderClose)
		doc = strings.Replace(doc, ph, regions[i], 1)
	}
	return doc
}

// text applies every rule to one text node.
func (t *Typograf) text(s string, quotes *quoteState) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = collapseSpaces(s)
	s = symbols.Replace(s)
	s = dashes(s, t.main.dash)
	s = quotes.apply(s)
	s = shortWordNBSP(s)
	return digitEntities(s)
}
