package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	in := "<!DOCTYPE html>\n<html>\n  <body>\n    <p class=\"a\">  hello   world  </p>\n    <style> p { color : #ff0000 ; } </style>\n  </body>\n</html>\n"
	out, err := New().HTML([]byte(in))
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `class="a"`)
	assert.Contains(t, s, "hello world")
	assert.NotContains(t, s, "hello   world")
	assert.Contains(t, s, "<html>")
	assert.Contains(t, s, "</body>")
	assert.Contains(t, s, "p{color:red}")
	assert.Less(t, len(out), len(in))
}

func TestCSS(t *testing.T) {
	out, err := New().CSS([]byte("a {\n  margin : 0px ;\n  background: url('../img/a.png');\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, "a{margin:0;background:url(../img/a.png)}", string(out))
}

func TestSVG(t *testing.T) {
	in := "<?xml version=\"1.0\"?>\n<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 10 10\">\n  <!-- icon -->\n  <path d=\"M 0 0 L 10 10\"/>\n</svg>\n"
	out, err := New().SVG([]byte(in))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "icon")
	assert.Less(t, len(out), len(in))
}
