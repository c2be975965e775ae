package styles

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var globImport = regexp.MustCompile(`(?m)^([ \t]*)@(import|use|forward)[ \t]+(["'])([^"'\n]*[*?{\[][^"'\n]*)(["'])([^;\n]*);`)

var sassExts = map[string]bool{".scss": true, ".sass": true, ".css": true}

// ExpandGlobs rewrites @import, @use and @forward statements whose target is
// a glob into one statement per matching stylesheet, in sorted order.
// Patterns resolve against the directory of file. A pattern matching nothing
// expands to nothing.
func ExpandGlobs(file string, src []byte) ([]byte, error) {
	dir := filepath.Dir(file)
	fsys := os.DirFS(dir)
	var firstErr error
	out := globImport.ReplaceAllStringFunc(string(src), func(stmt string) string {
		m := globImport.FindStringSubmatch(stmt)
		indent, keyword, quote, pattern, suffix := m[1], m[2], m[3], m[4], m[6]
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return stmt
		}
		var lines []string
		for _, rel := range matches {
			if !sassExts[path.Ext(rel)] || filepath.Join(dir, filepath.FromSlash(rel)) == filepath.Clean(file) {
				continue
			}
			lines = append(lines, indent+"@"+keyword+" "+quote+rel+quote+suffix+";")
		}
		sort.Strings(lines)
		return strings.Join(lines, "\n")
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return []byte(out), nil
}
