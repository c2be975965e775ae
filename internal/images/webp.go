// Package images converts raster images to WebP and optimizes everything
// else the prod build publishes.
package images

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitepipe/internal/tools"
)

// DefaultQuality matches cwebp's own default.
const DefaultQuality = 75

// WebPEncoder runs cwebp.
type WebPEncoder struct {
	Runner  tools.Runner
	Binary  string
	Quality int
}

// Encode converts a PNG or JPEG named name into WebP bytes.
func (e WebPEncoder) Encode(ctx context.Context, name string, data []byte) ([]byte, error) {
	q := e.Quality
	if q <= 0 {
		q = DefaultQuality
	}
	base := filepath.Base(name)
	return tools.RunFile(ctx, e.Runner, e.Binary, base, data, WebPName(base),
		func(in, out string) []string {
			return []string{"-quiet", "-q", strconv.Itoa(q), in, "-o", out}
		})
}

// WebPName replaces the extension of name with .webp.
func WebPName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".webp"
}
