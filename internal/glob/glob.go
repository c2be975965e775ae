// Package glob selects task source files with doublestar patterns.
package glob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Selection is a set of include patterns minus exclude patterns, evaluated
// relative to Root. Patterns and returned paths use forward slashes.
type Selection struct {
	Root    string
	Include []string
	Exclude []string
}

// New validates patterns and returns a Selection.
func New(root string, include, exclude []string) (Selection, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return Selection{}, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return Selection{Root: root, Include: include, Exclude: exclude}, nil
}

// Escape quotes the pattern metacharacters of a literal path so it can be
// joined with wildcards.
func Escape(literal string) string {
	var b strings.Builder
	for _, r := range filepath.ToSlash(literal) {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MustNew is New for static tables. Literal path parts taken from
// configuration must go through Escape first.
func MustNew(root string, include, exclude []string) Selection {
	s, err := New(root, include, exclude)
	if err != nil {
		panic(err)
	}
	return s
}

// Files returns the sorted relative paths of regular files selected. A
// missing root is empty input, not an error.
func (s Selection) Files() ([]string, error) {
	info, err := os.Stat(s.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("glob root %s is not a directory", s.Root)
	}

	fsys := os.DirFS(s.Root)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range s.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup || s.excluded(m) {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Match reports whether rel (relative to Root) is selected.
func (s Selection) Match(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")
	if s.excluded(rel) {
		return false
	}
	for _, p := range s.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (s Selection) excluded(rel string) bool {
	// Exclusion precedence first
	for _, p := range s.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
