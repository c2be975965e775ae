// Package fonts converts source fonts to web formats and generates the
// @font-face partial consumed by the styles task.
package fonts

import (
	"fmt"
	"strings"
)

// Face describes one @font-face block derived from a converted font file
// named {family}-{weight}.
type Face struct {
	Stem   string
	Family string
	Weight int
}

var weights = map[string]int{
	"thin":       100,
	"extralight": 200,
	"light":      300,
	"medium":     500,
	"semibold":   600,
	"bold":       700,
	"extrabold":  800,
	"heavy":      800,
	"black":      900,
}

// WeightFor maps a weight name to its numeric weight, case-insensitively.
// Unknown names map to 400.
func WeightFor(name string) int {
	if w, ok := weights[strings.ToLower(name)]; ok {
		return w
	}
	return 400
}

// Stem returns the part of a file name before its first dot.
func Stem(filename string) string {
	stem, _, _ := strings.Cut(filename, ".")
	return stem
}

// ParseFace derives a Face from a file stem. An empty family or weight
// token falls back to the whole stem.
func ParseFace(stem string) Face {
	parts := strings.Split(stem, "-")
	family := parts[0]
	if family == "" {
		family = stem
	}
	token := stem
	if len(parts) > 1 && parts[1] != "" {
		token = parts[1]
	}
	return Face{Stem: stem, Family: family, Weight: WeightFor(token)}
}

// Block renders the @font-face rule for f.
func (f Face) Block() string {
	return fmt.Sprintf("@font-face {\n\tfont-family: %s;\n\tfont-display: swap;\n"+
		"\tsrc: url(\"../fonts/%s.woff2\") format(\"woff2\"), url(\"../fonts/%s.woff\") format(\"woff\");\n"+
		"\tfont-weight: %d;\n\tfont-style: normal;\n}\r\n", f.Family, f.Stem, f.Stem, f.Weight)
}

// Stylesheet renders one block per stem in names, skipping a stem only when
// it equals the stem immediately before it. names is used in the order given.
func Stylesheet(names []string) []byte {
	var b strings.Builder
	prev, havePrev := "", false
	for _, name := range names {
		stem := Stem(name)
		if havePrev && stem == prev {
			continue
		}
		b.WriteString(ParseFace(stem).Block())
		prev, havePrev = stem, true
	}
	return []byte(b.String())
}
