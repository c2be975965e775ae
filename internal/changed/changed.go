// Package changed decides per file whether a task has work to do.
//
// Newer runs before any transform and compares modification times. Content
// runs after the transform and compares the produced bytes with the existing
// output. Neither writes anything; files they reject are counted as skipped.
package changed

import (
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/sitepipe/internal/glob"
)

// Pre filters sources before they are read.
type Pre interface {
	// Scan is called once per task run before any file is checked.
	Scan() error
	NeedsProcessing(src, out string) (bool, error)
}

// Post filters transformed content before it is written.
type Post interface {
	NeedsWrite(out string, content []byte) (bool, error)
	// Remember records content that was just written to out.
	Remember(out string, content []byte)
}

// Newer passes a source when its output is missing, or older than the source,
// or older than the newest file in Deps.
type Newer struct {
	Deps []glob.Selection

	depNewest time.Time
}

// NewNewer returns a Newer that also watches the given dependency sets.
func NewNewer(deps ...glob.Selection) *Newer {
	return &Newer{Deps: deps}
}

// Scan records the newest modification time across Deps.
func (n *Newer) Scan() error {
	n.depNewest = time.Time{}
	for _, sel := range n.Deps {
		files, err := sel.Files()
		if err != nil {
			return err
		}
		for _, rel := range files {
			info, err := os.Stat(filepath.Join(sel.Root, filepath.FromSlash(rel)))
			if err != nil {
				continue
			}
			if info.ModTime().After(n.depNewest) {
				n.depNewest = info.ModTime()
			}
		}
	}
	return nil
}

func (n *Newer) NeedsProcessing(src, out string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	outInfo, err := os.Stat(out)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	outTime := outInfo.ModTime()
	return outTime.Before(srcInfo.ModTime()) || outTime.Before(n.depNewest), nil
}

type hashEntry struct {
	size    int64
	modTime time.Time
	sum     [sha256.Size]byte
}

// Content passes transformed bytes whose sha256 differs from the output on
// disk. Output hashes are cached by path and invalidated by size or mtime.
type Content struct {
	cache *lru.Cache[string, hashEntry]
}

// DefaultCacheSize bounds the number of output hashes kept per detector.
const DefaultCacheSize = 4096

// NewContent returns a Content detector with an LRU of size entries.
func NewContent(size int) *Content {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, hashEntry](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Content{cache: cache}
}

// Scan is a no-op so Content can also be used where a Pre is expected.
func (c *Content) Scan() error { return nil }

func (c *Content) NeedsWrite(out string, content []byte) (bool, error) {
	info, err := os.Stat(out)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if info.Size() != int64(len(content)) {
		return true, nil
	}
	existing, err := c.outputSum(out, info)
	if err != nil {
		return false, err
	}
	return existing != sha256.Sum256(content), nil
}

func (c *Content) Remember(out string, content []byte) {
	info, err := os.Stat(out)
	if err != nil {
		c.cache.Remove(out)
		return
	}
	c.cache.Add(out, hashEntry{size: info.Size(), modTime: info.ModTime(), sum: sha256.Sum256(content)})
}

func (c *Content) outputSum(out string, info fs.FileInfo) ([sha256.Size]byte, error) {
	if e, ok := c.cache.Get(out); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.sum, nil
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	sum := sha256.Sum256(data)
	c.cache.Add(out, hashEntry{size: info.Size(), modTime: info.ModTime(), sum: sum})
	return sum, nil
}

// Always passes everything. It stands in when a task has no detector.
type Always struct{}

func (Always) Scan() error                                  { return nil }
func (Always) NeedsProcessing(string, string) (bool, error) { return true, nil }
func (Always) NeedsWrite(string, []byte) (bool, error)      { return true, nil }
func (Always) Remember(string, []byte)                      {}
