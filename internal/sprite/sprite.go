// Package sprite packs SVG icons into stack and symbol sprites.
package sprite

import (
	"fmt"
	"html"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const (
	svgNS   = "http://www.w3.org/2000/svg"
	xlinkNS = "http://www.w3.org/1999/xlink"

	stackStyle = ":root svg{display:none}:root svg:target{display:block}"
)

// Icon is one source SVG. ID is the fragment the icon is addressed by.
type Icon struct {
	ID   string
	Data []byte
}

// IconID derives an icon id from its path relative to the icon directory:
// "social/github.svg" becomes "social--github".
func IconID(rel string) string {
	rel = strings.TrimSuffix(path.Clean(rel), path.Ext(rel))
	return strings.ReplaceAll(rel, "/", "--")
}

// Options controls sprite serialization.
type Options struct {
	// Indent pretty-prints the sprite with this many spaces; 0 writes it compact.
	Indent int
}

// Stack builds a sprite in which each icon is a nested <svg> shown when its
// id is the URL fragment.
func Stack(icons []Icon, opts Options) ([]byte, error) {
	doc, root := newSprite()
	root.CreateElement("style").SetText(stackStyle)
	for _, icon := range sorted(icons) {
		src, err := parseIcon(icon)
		if err != nil {
			return nil, err
		}
		el := root.CreateElement("svg")
		copyAttrs(src, el, nil)
		el.CreateAttr("id", icon.ID)
		copyChildren(src, el, nil)
	}
	return write(doc, opts)
}

var paintAttrs = map[string]bool{"fill": true, "stroke": true}

// Symbol builds a sprite of <symbol> elements. fill and stroke attributes
// are removed so icons take their colour from the referencing page.
func Symbol(icons []Icon, opts Options) ([]byte, error) {
	doc, root := newSprite()
	for _, icon := range sorted(icons) {
		src, err := parseIcon(icon)
		if err != nil {
			return nil, err
		}
		el := root.CreateElement("symbol")
		if vb := src.SelectAttr("viewBox"); vb != nil {
			el.CreateAttr("viewBox", vb.Value)
		}
		el.CreateAttr("id", icon.ID)
		copyChildren(src, el, paintAttrs)
	}
	return write(doc, opts)
}

// StackExample renders an HTML page showing every icon of a stack sprite
// located at spriteRef.
func StackExample(ids []string, spriteRef string) []byte {
	ids = append([]string(nil), ids...)
	sort.Strings(ids)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Stack sprite</title>\n")
	b.WriteString("<style>figure{display:inline-block;margin:1em;text-align:center}img{width:48px;height:48px}</style>\n")
	b.WriteString("</head>\n<body>\n")
	for _, id := range ids {
		ref := html.EscapeString(spriteRef + "#" + id)
		fmt.Fprintf(&b, "<figure><img src=\"%s\" alt=\"%s\"><figcaption>%s</figcaption></figure>\n",
			ref, html.EscapeString(id), html.EscapeString(id))
	}
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

func newSprite() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", svgNS)
	root.CreateAttr("xmlns:xlink", xlinkNS)
	return doc, root
}

func sorted(icons []Icon) []Icon {
	out := append([]Icon(nil), icons...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseIcon(icon Icon) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(icon.Data); err != nil {
		return nil, fmt.Errorf("icon %s: %w", icon.ID, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, fmt.Errorf("icon %s: root element is not <svg>", icon.ID)
	}
	return root, nil
}

// copyAttrs copies attributes except namespace declarations, ids and the
// names in drop.
func copyAttrs(src, dst *etree.Element, drop map[string]bool) {
	for _, a := range src.Attr {
		if a.Space == "xmlns" || (a.Space == "" && (a.Key == "xmlns" || a.Key == "id")) || (a.Space == "" && drop[a.Key]) {
			continue
		}
		dst.CreateAttr(a.FullKey(), a.Value)
	}
}

func copyChildren(src, dst *etree.Element, drop map[string]bool) {
	for _, child := range src.ChildElements() {
		c := child.Copy()
		if len(drop) > 0 {
			stripAttrs(c, drop)
		}
		dst.AddChild(c)
	}
}

func stripAttrs(el *etree.Element, drop map[string]bool) {
	for name := range drop {
		el.RemoveAttr(name)
	}
	for _, c := range el.ChildElements() {
		stripAttrs(c, drop)
	}
}

func write(doc *etree.Document, opts Options) ([]byte, error) {
	if opts.Indent > 0 {
		doc.Indent(opts.Indent)
	} else {
		doc.Unindent()
	}
	return doc.WriteToBytes()
}
