package typograf

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var symbols = strings.NewReplacer(
	"...", "…",
	"(c)", "©", "(C)", "©",
	"(r)", "®", "(R)", "®",
	"(tm)", "™", "(TM)", "™", "(Tm)", "™",
)

var innerSpaces = regexp.MustCompile(`(\S)[ \t]{2,}`)

// collapseSpaces shrinks runs of blanks after visible text; indentation at
// the start of a line is kept.
func collapseSpaces(s string) string {
	return innerSpaces.ReplaceAllString(s, "$1 ")
}

var dashPattern = regexp.MustCompile(`(\S)[ \x{00A0}]+(?:-{1,3}|–|—)[ \x{00A0}]+`)

// dashes turns a spaced hyphen between words into the locale's dash.
func dashes(s, dash string) string {
	return dashPattern.ReplaceAllString(s, "${1}"+dash)
}

// quoteState tracks open quotes across the text nodes of one document.
type quoteState struct {
	loc   locale
	depth int
	prev  rune
}

func (q *quoteState) apply(s string) string {
	prev := q.prev
	if prev == 0 {
		prev = ' '
	}
	defer func() {
		if r, _ := utf8.DecodeLastRuneInString(s); r != utf8.RuneError {
			q.prev = r
		}
	}()
	if !strings.ContainsAny(s, `"'`) {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '"':
			if opensQuote(prev) {
				if q.depth == 0 {
					b.WriteString(q.loc.outerOpen)
				} else {
					b.WriteString(q.loc.innerOpen)
				}
				q.depth++
			} else {
				if q.depth > 1 {
					b.WriteString(q.loc.innerClose)
				} else {
					b.WriteString(q.loc.outerClose)
				}
				if q.depth > 0 {
					q.depth--
				}
			}
		case '\'':
			next, _ := utf8.DecodeRuneInString(s[i+1:])
			if unicode.IsLetter(prev) && unicode.IsLetter(next) {
				b.WriteRune('’')
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func opensQuote(prev rune) bool {
	return unicode.IsSpace(prev) || strings.ContainsRune("([{«„“‘-—–", prev)
}

// shortWordNBSP binds one- and two-letter words to the following word.
func shortWordNBSP(s string) string {
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if !unicode.IsLetter(runes[i]) || (i > 0 && !isWordBoundary(runes[i-1])) {
			continue
		}
		j := i
		for j < len(runes) && unicode.IsLetter(runes[j]) {
			j++
		}
		if n := j - i; n <= 2 && j < len(runes) && runes[j] == ' ' && j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			runes[j] = '\u00a0'
		}
		i = j - 1
	}
	return string(runes)
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("([{«„“‘\"'", r)
}

// entityRunes are written as decimal character references.
var entityRunes = map[rune]bool{
	'\u00a0': true, '\u2009': true, '…': true, '—': true, '–': true,
	'«': true, '»': true, '„': true, '“': true, '”': true, '‘': true, '’': true, '‚': true,
	'©': true, '®': true, '™': true,
}

func digitEntities(s string) string {
	var b strings.Builder
	for _, r := range s {
		if entityRunes[r] {
			b.WriteString("&#")
			b.WriteString(strconv.Itoa(int(r)))
			b.WriteByte(';')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
