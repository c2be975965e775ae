package glob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o644))
	}
}

func TestSelection_FilesExcludesBlocks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"index.html",
		"about/team.html",
		"blocks/header.html",
		"blocks/nested/footer.html",
		"data.json",
	)

	sel, err := New(root, []string{"**/*.html"}, []string{"blocks/**"})
	require.NoError(t, err)

	files, err := sel.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"about/team.html", "index.html"}, files)
}

func TestSelection_NonRecursiveStyles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "style.scss", "base/_vars.scss", "about.scss")

	files, err := MustNew(root, []string{"*.scss"}, nil).Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"about.scss", "style.scss"}, files)
}

func TestSelection_MissingRootIsEmpty(t *testing.T) {
	files, err := MustNew(filepath.Join(t.TempDir(), "nope"), []string{"**/*"}, nil).Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSelection_Match(t *testing.T) {
	sel := MustNew("src/img", []string{"**/*"}, []string{"svgicons/**"})
	assert.True(t, sel.Match("pic.png"))
	assert.True(t, sel.Match("./gallery/pic.jpg"))
	assert.False(t, sel.Match("svgicons/arrow.svg"))

	braces := MustNew("src/html", []string{"**/*.{html,json}"}, nil)
	assert.True(t, braces.Match("blocks/data.json"))
	assert.False(t, braces.Match("readme.md"))
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(".", []string{"[unclosed"}, nil)
	require.Error(t, err)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `parts\[old`, Escape("parts[old"))
	assert.Equal(t, `a\*b\{c,d\}\?`, Escape("a*b{c,d}?"))
	assert.Equal(t, "plain/dir", Escape("plain/dir"))

	root := t.TempDir()
	writeTree(t, root, "index.html", "parts[old/header.html", "partso/keep.html")

	sel, err := New(root, []string{"**/*.html"}, []string{Escape("parts[old") + "/**"})
	require.NoError(t, err)
	files, err := sel.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "partso/keep.html"}, files)
}
