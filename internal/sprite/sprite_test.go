package sprite

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mailIcon = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" id="old" viewBox="0 0 24 24" width="24" height="24" fill="none">
  <path d="M0 0h24v24H0z" fill="#000" stroke="#fff" stroke-width="2"/>
  <g stroke="red"><circle cx="12" cy="12" r="4"/></g>
</svg>`
	homeIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><rect width="16" height="16"/></svg>`
)

func icons() []Icon {
	return []Icon{
		{ID: IconID("social/mail.svg"), Data: []byte(mailIcon)},
		{ID: IconID("home.svg"), Data: []byte(homeIcon)},
	}
}

func parse(t *testing.T, data []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	return doc.Root()
}

func TestIconID(t *testing.T) {
	assert.Equal(t, "home", IconID("home.svg"))
	assert.Equal(t, "social--mail", IconID("social/mail.svg"))
}

func TestStack(t *testing.T) {
	out, err := Stack(icons(), Options{})
	require.NoError(t, err)
	root := parse(t, out)
	require.Equal(t, "svg", root.Tag)

	children := root.ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "style", children[0].Tag)
	assert.Equal(t, "home", children[1].SelectAttrValue("id", ""))
	mail := children[2]
	assert.Equal(t, "social--mail", mail.SelectAttrValue("id", ""))
	assert.Equal(t, "0 0 24 24", mail.SelectAttrValue("viewBox", ""))
	assert.Equal(t, "none", mail.SelectAttrValue("fill", ""))
	assert.Equal(t, "#000", mail.SelectElement("path").SelectAttrValue("fill", ""))
	assert.NotContains(t, string(out), "\n  <")
}

func TestSymbol_StripsPaint(t *testing.T) {
	out, err := Symbol(icons(), Options{Indent: 4})
	require.NoError(t, err)
	root := parse(t, out)
	symbols := root.SelectElements("symbol")
	require.Len(t, symbols, 2)
	mail := symbols[1]
	assert.Equal(t, "social--mail", mail.SelectAttrValue("id", ""))
	assert.Equal(t, "0 0 24 24", mail.SelectAttrValue("viewBox", ""))

	path := mail.SelectElement("path")
	assert.Nil(t, path.SelectAttr("fill"))
	assert.Nil(t, path.SelectAttr("stroke"))
	assert.Equal(t, "2", path.SelectAttrValue("stroke-width", ""))
	assert.Nil(t, mail.SelectElement("g").SelectAttr("stroke"))
	assert.Contains(t, string(out), "\n    <symbol")
}

func TestStack_RejectsNonSVG(t *testing.T) {
	_, err := Stack([]Icon{{ID: "bad", Data: []byte("<html/>")}}, Options{})
	assert.Error(t, err)
	_, err = Symbol([]Icon{{ID: "broken", Data: []byte("<svg")}}, Options{})
	assert.Error(t, err)
}

func TestStackExample(t *testing.T) {
	page := string(StackExample([]string{"social--mail", "home"}, "svg/sprite.stack.svg"))
	assert.True(t, strings.Index(page, "#home") < strings.Index(page, "#social--mail"))
	assert.Contains(t, page, `<img src="svg/sprite.stack.svg#home" alt="home">`)
}
