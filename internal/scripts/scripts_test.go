package scripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestBundle_ResolvesImports(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "modules/greet.js", "export const greet = (name) => `hello ${name}`;\n")
	entry := writeModule(t, dir, "index.js", "import { greet } from './modules/greet.js';\nconsole.log(greet('menu'));\n")

	out, err := Dev(false).Bundle(entry)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "hello ${name}")
	assert.Contains(t, s, "(() => {")
	assert.NotContains(t, s, "import ")
}

func TestBundle_ProdLowersAndMinifies(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, "index.js", "const add = (a, b) => a + b;\nlet longVariableName = add(1, 2);\nconsole.log(`${longVariableName}`);\n")

	b, err := Prod("es2015")
	require.NoError(t, err)
	out, err := b.Bundle(entry)
	require.NoError(t, err)
	s := string(out)
	assert.NotContains(t, s, "longVariableName")
	assert.NotContains(t, s, "\n  ")
}

func TestBundle_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, "index.js", "const = ;\n")
	_, err := Dev(false).Bundle(entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.js")
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("ES2015")
	require.NoError(t, err)
	assert.Equal(t, api.ES2015, got)
	got, err = ParseTarget("")
	require.NoError(t, err)
	assert.Equal(t, api.ESNext, got)
	_, err = ParseTarget("es3")
	assert.Error(t, err)
}

func TestBundleName(t *testing.T) {
	assert.Equal(t, "index.bundle.js", BundleName("index.js"))
	assert.Equal(t, "sub/app.bundle.js", BundleName("sub/app.js"))
}
