// Package rewrite fixes relative asset references after templating and
// compilation so they resolve against the flattened output layout.
//
// HTML pages land at the output root, so a reference such as
// "../../img/pic.png" becomes "./img/pic.png". Stylesheets land one level
// down in css/, so "../../img/pic.png" becomes "../img/pic.png". Both rules
// share Classes.
package rewrite

import (
	"regexp"
	"strings"
)

// Classes is the asset directory vocabulary recognised by both rules.
var Classes = []string{"img", "images", "fonts", "css", "scss", "sass", "js", "files", "audio", "video"}

var htmlAttrs = []string{"src=", "href=", "srcset="}

// HTML rewrites src=, href= and srcset= values whose opening and closing
// quotes agree and that start with an optional ./ or ../ chain followed by
// an asset class keyword. Attribute names and keywords match case-insensitively.
func HTML(text string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); i++ {
		q := text[i]
		if q != '"' && q != '\'' || !precededByAttr(text, i) {
			continue
		}
		end, rewritten, ok := matchHTMLValue(text, i+1, q)
		if !ok {
			continue
		}
		b.WriteString(text[last : i+1])
		b.WriteString(rewritten)
		b.WriteByte(q)
		last = end + 1
		i = end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func precededByAttr(text string, quote int) bool {
	for _, a := range htmlAttrs {
		if quote >= len(a) && strings.EqualFold(text[quote-len(a):quote], a) {
			return true
		}
	}
	return false
}

// matchHTMLValue matches the value starting at start. It returns the index
// of the closing quote and the rewritten value.
func matchHTMLValue(text string, start int, q byte) (int, string, bool) {
	pos := skipTraversal(text, start, false)
	class, ok := classAt(text, pos)
	if !ok {
		return 0, "", false
	}
	restStart := pos + len(class)
	end := restStart
	for end < len(text) && text[end] != '"' && text[end] != '\'' {
		end++
	}
	if end == len(text) || text[end] != q {
		return 0, "", false
	}
	return end, "./" + text[pos:end], true
}

// skipTraversal consumes a chain of "./" and "../" tokens. With parentOnly
// set only "../" counts.
func skipTraversal(text string, pos int, parentOnly bool) int {
	for {
		switch {
		case strings.HasPrefix(text[pos:], "../"):
			pos += 3
		case !parentOnly && strings.HasPrefix(text[pos:], "./"):
			pos += 2
		default:
			return pos
		}
	}
}

// classAt returns the class keyword at pos as written in text.
func classAt(text string, pos int) (string, bool) {
	for _, c := range Classes {
		if len(text)-pos >= len(c) && strings.EqualFold(text[pos:pos+len(c)], c) {
			return text[pos : pos+len(c)], true
		}
	}
	return "", false
}

// CSS collapses a run of one or more "../" directly before an asset class
// keyword into a single "../". Quotes around the reference are untouched.
func CSS(text string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); {
		if !strings.HasPrefix(text[i:], "../") {
			i++
			continue
		}
		pos := skipTraversal(text, i, true)
		if _, ok := classAt(text, pos); !ok {
			i = pos
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString("../")
		// the reference runs to the next quote, paren or whitespace
		end := pos
		for end < len(text) && !strings.ContainsRune("'\") \t\r\n;", rune(text[end])) {
			end++
		}
		b.WriteString(text[pos:end])
		last, i = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

var (
	pictureBlock = regexp.MustCompile(`(?i)<picture[\s\S]*?</picture>`)
	pictureImage = regexp.MustCompile(`(\.\./img/[^"'\s]+)\.(png|jpg|jpeg|gif)`)
)

// PictureWebP points ../img/ raster references inside <picture> blocks at
// their .webp counterparts. Prod runs it before HTML.
func PictureWebP(text string) string {
	return pictureBlock.ReplaceAllStringFunc(text, func(block string) string {
		return pictureImage.ReplaceAllString(block, "$1.webp")
	})
}
