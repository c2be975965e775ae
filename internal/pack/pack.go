// Package pack zips a production build for delivery.
package pack

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/klauspost/compress/zip"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/version"
)

// Summary describes a written archive.
type Summary struct {
	Path    string
	Entries int
	Comment string
}

// Archive zips every regular file under root into dest. Entries are sorted,
// deflated and named by their slash path relative to root. The archive is
// written atomically.
func Archive(ctx context.Context, root, dest string) (Summary, error) {
	sum := Summary{Path: dest}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return sum, foundationerrors.NotFoundError("nothing to package; run a prod build first").
			WithContext("root", root).
			WithCause(err).
			Build()
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return sum, fsError(err, "failed to list build output", root)
	}
	sort.Strings(files)

	sum.Comment = Comment(root)
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sitepipe-pack-*")
	if err != nil {
		return sum, fsError(err, "failed to create archive", dest)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := zip.NewWriter(tmp)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			_ = tmp.Close()
			return sum, err
		}
		if err := addFile(zw, root, rel); err != nil {
			_ = tmp.Close()
			return sum, fsError(err, "failed to add file to archive", rel)
		}
		sum.Entries++
	}
	if err := zw.SetComment(sum.Comment); err != nil {
		_ = tmp.Close()
		return sum, fsError(err, "failed to set archive comment", dest)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return sum, fsError(err, "failed to finish archive", dest)
	}
	if err := tmp.Close(); err != nil {
		return sum, fsError(err, "failed to finish archive", dest)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return sum, fsError(err, "failed to finish archive", dest)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return sum, fsError(err, "failed to move archive into place", dest)
	}

	slog.Info("Archive written", logfields.Dest(dest), logfields.Count(sum.Entries))
	return sum, nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = rel
	hdr.Method = zip.Deflate
	hdr.Modified = info.ModTime().UTC().Truncate(time.Second)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Comment describes the build for the archive comment: the tool version and,
// when dir sits inside a git work tree, the HEAD commit.
func Comment(dir string) string {
	c := "sitepipe " + version.Version
	if head := Head(dir); head != "" {
		c += " commit " + head
	}
	return c
}

// Head returns the HEAD commit of the repository containing dir, or "" when
// there is none.
func Head(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		slog.Debug("No git HEAD for archive comment", logfields.Path(dir), logfields.Error(err))
		return ""
	}
	return ref.Hash().String()
}

func fsError(err error, msg, path string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, msg).
		WithContext("path", path).
		Build()
}
