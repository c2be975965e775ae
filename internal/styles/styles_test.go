package styles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/tools"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blocks", "_header.scss"), "")
	writeFile(t, filepath.Join(dir, "blocks", "_footer.scss"), "")
	writeFile(t, filepath.Join(dir, "blocks", "nested", "_card.scss"), "")
	writeFile(t, filepath.Join(dir, "blocks", "readme.md"), "")
	main := filepath.Join(dir, "main.scss")

	src := "@import \"base/reset\";\n  @import \"blocks/**/*.scss\";\n@use 'blocks/*' as *;\nbody { color: red; }\n"
	out, err := ExpandGlobs(main, []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "@import \"base/reset\";\n"+
		"  @import \"blocks/_footer.scss\";\n"+
		"  @import \"blocks/_header.scss\";\n"+
		"  @import \"blocks/nested/_card.scss\";\n"+
		"@use 'blocks/_footer.scss' as *;\n"+
		"@use 'blocks/_header.scss' as *;\n"+
		"body { color: red; }\n", string(out))
}

func TestExpandGlobs_NoMatch(t *testing.T) {
	out, err := ExpandGlobs(filepath.Join(t.TempDir(), "main.scss"), []byte("@import \"none/*\";\na{}"))
	require.NoError(t, err)
	assert.Equal(t, "\na{}", string(out))
}

func TestBinaryCompiler(t *testing.T) {
	var got tools.Invocation
	c := BinaryCompiler{
		Binary:    "sass",
		LoadPaths: []string{"src/scss"},
		Runner: tools.RunnerFunc(func(_ context.Context, inv tools.Invocation) ([]byte, error) {
			got = inv
			return []byte("a {\n  b: c;\n}\n"), nil
		}),
	}
	out, err := c.Compile(context.Background(), filepath.Join("src", "scss", "main.scss"), []byte("a { b: c }"))
	require.NoError(t, err)
	assert.Equal(t, "a {\n  b: c;\n}\n", string(out))
	assert.Equal(t, "sass", got.Binary)
	assert.Equal(t, []byte("a { b: c }"), got.Stdin)
	assert.Equal(t, []string{"--stdin", "--style=expanded", "--load-path=" + filepath.Join("src", "scss"),
		"--load-path=src/scss", "--no-source-map"}, got.Args)

	c.SourceMap = true
	_, err = c.Compile(context.Background(), "main.scss", nil)
	require.NoError(t, err)
	assert.Contains(t, got.Args, "--embed-source-map")
}

func TestPrefixer(t *testing.T) {
	p, err := NewPrefixer([]string{"safari13"})
	require.NoError(t, err)
	out, err := p.Prefix("main.css", []byte(".a { user-select: none; }"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "-webkit-user-select: none")
	assert.Contains(t, string(out), "user-select: none")

	_, err = NewPrefixer([]string{"mosaic1"})
	assert.Error(t, err)
}

func TestGroupMedia(t *testing.T) {
	src := `.a { color: red; }
@media (max-width: 767px) { .a { color: blue; } }
.b { color: green; }
@media (min-width: 1200px) { .b { margin: 0; } }
@media (min-width: 768px) { .a { color: black; } }
@media (max-width: 767px) { .b { color: white; } }
@media print { .c { display: none; } }
`
	out, err := GroupMedia([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, `.a { color: red; }

.b { color: green; }

@media (min-width: 768px) {
  .a { color: black; }
}

@media (min-width: 1200px) {
  .b { margin: 0; }
}

@media (max-width: 767px) {
  .a { color: blue; }
  .b { color: white; }
}

@media print {
  .c { display: none; }
}
`, string(out))
}

func TestGroupMedia_LeavesNestedAndPlainSheets(t *testing.T) {
	plain := []byte(".a { color: red; }\n")
	out, err := GroupMedia(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)

	nested := []byte("@supports (display: grid) { @media (min-width: 1px) { .a { display: grid; } } }\n")
	out, err = GroupMedia(nested)
	require.NoError(t, err)
	assert.Equal(t, nested, out)
}
