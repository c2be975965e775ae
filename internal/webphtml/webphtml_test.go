package webphtml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultWrapper() *Wrapper {
	return New([]string{"jpg", "jpeg", "png", "gif", "webp"}, map[int]string{1: "", 2: "@2x"})
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"png is wrapped",
			`<img src="./img/pic.png" alt="x">`,
			`<picture><source type="image/webp" srcset="./img/pic.webp 1x, ./img/pic@2x.webp 2x"><img src="./img/pic.png" alt="x"></picture>`,
		},
		{
			"self closing upper-case ext",
			`<img src="a/B.JPG"/>`,
			`<picture><source type="image/webp" srcset="a/B.webp 1x, a/B@2x.webp 2x"><img src="a/B.JPG"/></picture>`,
		},
		{"svg is left alone", `<img src="./img/logo.svg">`, `<img src="./img/logo.svg">`},
		{"data uri is left alone", `<img src="data:image/png;base64,AAAA">`, `<img src="data:image/png;base64,AAAA">`},
		{
			"existing picture is left alone",
			`<picture><source srcset="x.webp"><img src="x.jpg"></picture>`,
			`<picture><source srcset="x.webp"><img src="x.jpg"></picture>`,
		},
		{"no src", `<img alt="">`, `<img alt="">`},
	}
	w := defaultWrapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := w.Wrap(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestWrap_KeepsSurroundingMarkup(t *testing.T) {
	in := "<!DOCTYPE html>\n<body>\n  <p>text &amp; more</p>\n  <img src=\"x.gif\">\n</body>"
	out, err := defaultWrapper().Wrap(in)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>\n<body>\n  <p>text &amp; more</p>\n  <picture><source type=\"image/webp\" srcset=\"x.webp 1x, x@2x.webp 2x\"><img src=\"x.gif\"></picture>\n</body>", out)
}

func TestNew_SingleDensityDefault(t *testing.T) {
	w := New([]string{".png"}, nil)
	out, err := w.Wrap(`<img src="a.png">`)
	require.NoError(t, err)
	assert.Equal(t, `<picture><source type="image/webp" srcset="a.webp 1x"><img src="a.png"></picture>`, out)
}
