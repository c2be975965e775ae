package server

import (
	"net/http"
	"path"
	"strings"
)

// cacheControl returns the Cache-Control value for a request path. Pages,
// styles and scripts always revalidate. Fonts are immutable unless live
// reload may replace them.
func cacheControl(p string, live bool) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".woff", ".woff2", ".ttf", ".otf", ".eot":
		if live {
			return "no-cache, must-revalidate"
		}
		return "public, max-age=31536000, immutable"
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico":
		return "public, max-age=60, must-revalidate"
	case ".zip", ".pdf":
		return "public, max-age=86400"
	case ".css", ".js", ".json", ".html", "":
		return "no-cache, must-revalidate"
	}
	return ""
}

func withCacheControl(next http.Handler, live bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := cacheControl(r.URL.Path, live); v != "" {
			w.Header().Set("Cache-Control", v)
		}
		next.ServeHTTP(w, r)
	})
}
