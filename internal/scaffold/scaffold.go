// Package scaffold writes the starter source tree used by `sitepipe init
// --scaffold`.
package scaffold

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

//go:embed all:starter
var starter embed.FS

// Files lists the starter tree, slash separated, relative to the project root.
func Files() ([]string, error) {
	var out []string
	err := fs.WalkDir(starter, "starter", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		out = append(out, strings.TrimPrefix(p, "starter/"))
		return nil
	})
	return out, err
}

// Write copies the starter tree into root and returns the files it wrote.
// Existing files are left alone unless force is set.
func Write(root string, force bool) ([]string, error) {
	files, err := Files()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to read starter tree").Build()
	}
	var written []string
	for _, rel := range files {
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(dest); err == nil && !force {
			slog.Debug("Keeping existing file", logfields.Path(dest))
			continue
		}
		data, err := starter.ReadFile(path.Join("starter", rel))
		if err != nil {
			return written, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to read starter file").
				WithContext("file", rel).
				Build()
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, fsError(err, dest)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return written, fsError(err, dest)
		}
		written = append(written, rel)
	}
	slog.Info("Starter tree written", logfields.Path(root), logfields.Count(len(written)))
	return written, nil
}

func fsError(err error, p string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write starter file").
		WithContext("path", p).
		Build()
}
