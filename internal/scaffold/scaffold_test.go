package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	assert.Contains(t, files, "src/js/index.js")
	assert.Contains(t, files, "src/html/index.html")
	assert.Contains(t, files, "src/scss/base/_fontsAutoInclude.scss")
	assert.Contains(t, files, "src/files/.gitkeep")
}

func TestWrite(t *testing.T) {
	root := t.TempDir()
	custom := filepath.Join(root, "src", "scss", "main.scss")
	require.NoError(t, os.MkdirAll(filepath.Dir(custom), 0o755))
	require.NoError(t, os.WriteFile(custom, []byte("// mine"), 0o644))

	written, err := Write(root, false)
	require.NoError(t, err)
	assert.NotContains(t, written, "src/scss/main.scss")
	got, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "// mine", string(got))

	js, err := os.ReadFile(filepath.Join(root, "src", "js", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), "slide-menu")
	assert.Contains(t, string(js), ".swiper-achievements")

	written, err = Write(root, true)
	require.NoError(t, err)
	assert.Contains(t, written, "src/scss/main.scss")
}
