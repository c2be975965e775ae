package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/changed"
	"git.home.luguber.info/inful/sitepipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/glob"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func upper() Stage { return TextStage("upper", strings.ToUpper) }

func TestRun_CopiesAndSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src, out := filepath.Join(dir, "src"), filepath.Join(dir, "out")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	def := TaskDef{Name: "copy", Mode: config.ModeDev, Phases: []Phase{{
		Source: glob.MustNew(src, []string{"**/*"}, nil),
		OutDir: out,
		Pre:    changed.NewNewer(),
		Stages: []Stage{upper()},
	}}}

	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Len(t, res.Written, 2)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, metrics.ResultSuccess, res.Outcome())
	assert.Equal(t, "B", readFile(t, filepath.Join(out, "sub", "b.txt")))

	res, err = NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Equal(t, 2, res.Skipped)
	assert.False(t, res.Changed())
}

func TestRun_StageFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	src, out := filepath.Join(dir, "src"), filepath.Join(dir, "out")
	writeFile(t, filepath.Join(src, "bad.txt"), "bad")
	writeFile(t, filepath.Join(src, "good.txt"), "good")

	boom := errors.New("boom")
	def := TaskDef{Name: "t", Phases: []Phase{{
		Source: glob.MustNew(src, []string{"*.txt"}, nil),
		OutDir: out,
		Stages: []Stage{
			StageFunc("check", func(_ context.Context, a *Asset) error {
				if a.Rel == "bad.txt" {
					return boom
				}
				return nil
			}),
			upper(),
		},
	}}}

	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, "t", f.Task)
	assert.Equal(t, "bad.txt", f.File)
	assert.Equal(t, "check", f.Stage)
	assert.ErrorIs(t, f, boom)
	assert.Equal(t, metrics.ResultPartial, res.Outcome())

	assert.Equal(t, "GOOD", readFile(t, filepath.Join(out, "good.txt")))
	assert.NoFileExists(t, filepath.Join(out, "bad.txt"))
}

func TestRun_OutNameAndStageRename(t *testing.T) {
	dir := t.TempDir()
	src, out := filepath.Join(dir, "src"), filepath.Join(dir, "out")
	writeFile(t, filepath.Join(src, "main.scss"), "x")

	def := TaskDef{Name: "t", Phases: []Phase{{
		Source:  glob.MustNew(src, []string{"*.scss"}, nil),
		OutDir:  out,
		OutName: ReplaceExt(".css"),
		Stages: []Stage{StageFunc("rename", func(_ context.Context, a *Asset) error {
			a.Out = "renamed/" + a.Out
			return nil
		})},
	}}}
	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "renamed", "main.css")}, res.Written)
}

func TestRun_PostContentSkipsIdenticalOutput(t *testing.T) {
	dir := t.TempDir()
	src, out := filepath.Join(dir, "src"), filepath.Join(dir, "out")
	writeFile(t, filepath.Join(src, "page.html"), "<p>same</p>")
	writeFile(t, filepath.Join(out, "page.html"), "<p>same</p>")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(out, "page.html"), past, past))

	def := TaskDef{Name: "html", Phases: []Phase{{
		Source: glob.MustNew(src, []string{"*.html"}, nil),
		OutDir: out,
		Post:   changed.NewContent(0),
	}}}
	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Equal(t, 1, res.Skipped)

	info, err := os.Stat(filepath.Join(out, "page.html"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestRun_PackEmptyOnMissingRoot(t *testing.T) {
	dir := t.TempDir()
	var got int
	def := TaskDef{Name: "sheet", Phases: []Phase{{
		Source:    glob.MustNew(filepath.Join(dir, "missing"), []string{"*"}, nil),
		OutDir:    dir,
		NamesOnly: true,
		PackEmpty: true,
		Pack: PackFunc("sheet", func(_ context.Context, assets []*Asset) ([]*Asset, error) {
			got = len(assets)
			return []*Asset{{Out: "sheet.scss"}}, nil
		}),
	}}}
	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.Equal(t, "", readFile(t, filepath.Join(dir, "sheet.scss")))
	assert.Len(t, res.Written, 1)

	def.Phases[0].PackEmpty = false
	res, err = NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
}

func TestRun_PackFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "icons", "a.svg"), "<svg/>")
	def := TaskDef{Name: "svg", Phases: []Phase{{
		Source: glob.MustNew(filepath.Join(dir, "icons"), []string{"*.svg"}, nil),
		OutDir: filepath.Join(dir, "out"),
		Pack: PackFunc("stack", func(context.Context, []*Asset) ([]*Asset, error) {
			return nil, errors.New("bad icon")
		}),
	}}}
	res, err := NewRunner().Run(context.Background(), def)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "stack", res.Failures[0].Stage)
}

func TestRun_WriteFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	blocker := filepath.Join(dir, "out")
	writeFile(t, blocker, "not a directory")

	def := TaskDef{Name: "t", Phases: []Phase{{
		Source: glob.MustNew(src, []string{"*"}, nil),
		OutDir: blocker,
	}}}
	_, err := NewRunner().Run(context.Background(), def)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryFileSystem))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	def := TaskDef{Name: "t", Phases: []Phase{{
		Source: glob.MustNew(filepath.Join(dir, "src"), []string{"*"}, nil),
		OutDir: filepath.Join(dir, "out"),
	}}}
	_, err := NewRunner().Run(ctx, def)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))
	assert.Equal(t, "two", readFile(t, path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
