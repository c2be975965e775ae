package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML_EveryClassCollapsesToDotSlash(t *testing.T) {
	for _, class := range Classes {
		for _, prefix := range []string{"", "./", "../", "../../", "./../", "../../../"} {
			in := `<a href="` + prefix + class + `/sub/file.ext">`
			want := `<a href="./` + class + `/sub/file.ext">`
			assert.Equal(t, want, HTML(in), in)
		}
	}
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"img src", `<img src="../img/pic.png">`, `<img src="./img/pic.png">`},
		{"single quotes", `<img src='../../img/a/b/c.png'>`, `<img src='./img/a/b/c.png'>`},
		{"upper case attribute", `<IMG SRC="../IMG/pic.png">`, `<IMG SRC="./IMG/pic.png">`},
		{"srcset first candidate", `<source srcset="../img/a.webp 1x, ../img/a@2x.webp 2x">`, `<source srcset="./img/a.webp 1x, ../img/a@2x.webp 2x">`},
		{"stylesheet link", `<link rel="stylesheet" href="../css/main.css">`, `<link rel="stylesheet" href="./css/main.css">`},
		{"mismatched quotes untouched", `<img src="../img/it's.png">`, `<img src="../img/it's.png">`},
		{"unknown class untouched", `<img src="../assets/pic.png">`, `<img src="../assets/pic.png">`},
		{"absolute url untouched", `<a href="https://example.com/img/x.png">`, `<a href="https://example.com/img/x.png">`},
		{"other attribute untouched", `<div data-x="../img/a.png" title="../img/b.png">`, `<div data-x="../img/a.png" title="../img/b.png">`},
		{"several attributes", `<a href="../files/a.pdf"><img src="../../images/b.jpg"></a>`, `<a href="./files/a.pdf"><img src="./images/b.jpg"></a>`},
		{"space before quote untouched", `<img src= "../img/a.png">`, `<img src= "../img/a.png">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTML(tt.in))
		})
	}
}

func TestHTML_NoMatchReturnsInput(t *testing.T) {
	in := strings.Repeat("plain text without references ", 10)
	assert.Equal(t, in, HTML(in))
}

func TestCSS(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted", `background: url("../../img/bg.png");`, `background: url("../img/bg.png");`},
		{"single traversal kept", `src: url('../fonts/a.woff2')`, `src: url('../fonts/a.woff2')`},
		{"unquoted", `url(../../../img/x/y.svg)`, `url(../img/x/y.svg)`},
		{
			"every reference in a line",
			`.a{background:url(../../img/a.png)}.b{background:url(../../img/b.png)}`,
			`.a{background:url(../img/a.png)}.b{background:url(../img/b.png)}`,
		},
		{"unknown class", `url(../../vendor/x.png)`, `url(../../vendor/x.png)`},
		{"dot slash not collapsed", `url(./img/a.png)`, `url(./img/a.png)`},
		{"case insensitive", `url(../../Fonts/A.woff)`, `url(../Fonts/A.woff)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSS(tt.in))
		})
	}
}

func TestPictureWebP(t *testing.T) {
	in := `<picture><img src="../img/hero.jpg" alt=""></picture>` +
		`<img src="../img/outside.png">` +
		`<PICTURE class="x"><img src="../img/a/b.gif"><img src="../img/c.svg"></PICTURE>`
	want := `<picture><img src="../img/hero.webp" alt=""></picture>` +
		`<img src="../img/outside.png">` +
		`<PICTURE class="x"><img src="../img/a/b.webp"><img src="../img/c.svg"></PICTURE>`
	assert.Equal(t, want, PictureWebP(in))
}

func TestPictureWebPThenHTML(t *testing.T) {
	in := `<picture><img src="../img/pic.png"></picture>`
	assert.Equal(t, `<picture><img src="./img/pic.webp"></picture>`, HTML(PictureWebP(in)))
}
