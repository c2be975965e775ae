package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// ScriptPath serves the reload client; EventsPath is its event stream.
const (
	ScriptPath    = "/__sitepipe/livereload.js"
	EventsPath    = "/__sitepipe/livereload"
	WebSocketPath = "/livereload"
)

// ReloadScript is the browser side of EventsPath. A message whose path ends
// in .css swaps stylesheets in place; anything else reloads the page.
const ReloadScript = `(() => {
  if (window.__SITEPIPE_LR__) return;
  window.__SITEPIPE_LR__ = true;
  function refreshCSS() {
    document.querySelectorAll('link[rel="stylesheet"]').forEach((l) => {
      const u = new URL(l.href);
      u.searchParams.set('lr', Date.now());
      l.href = u.toString();
    });
  }
  function connect() {
    const es = new EventSource('` + EventsPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash === current) return;
        current = p.hash;
        if (p.path && p.path.endsWith('.css')) { refreshCSS(); return; }
        location.reload();
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`

const scriptTag = `<script src="` + ScriptPath + `"></script>`

// maxInjectSize bounds how much of a page is buffered for injection.
const maxInjectSize = 512 * 1024

func isPagePath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}

// injectReloadScript adds the reload client to HTML pages.
func injectReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isPagePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response and inserts the script tag before
// </body>. Non-HTML and oversized responses pass through untouched.
type injector struct {
	http.ResponseWriter
	statusCode    int
	buf           []byte
	headerWritten bool
	passthrough   bool
	decided       bool
}

func (in *injector) WriteHeader(code int) {
	in.statusCode = code
	if in.passthrough {
		in.ResponseWriter.WriteHeader(code)
		in.headerWritten = true
	}
}

func (in *injector) Write(data []byte) (int, error) {
	if !in.decided {
		in.decided = true
		ct := in.Header().Get("Content-Type")
		if in.statusCode != http.StatusOK || (ct != "" && !strings.Contains(ct, "text/html")) {
			in.startPassthrough()
		}
	}
	if in.passthrough {
		return in.ResponseWriter.Write(data)
	}
	if len(in.buf)+len(data) > maxInjectSize {
		in.startPassthrough()
		if len(in.buf) > 0 {
			if _, err := in.ResponseWriter.Write(in.buf); err != nil {
				return 0, err
			}
			in.buf = nil
		}
		return in.ResponseWriter.Write(data)
	}
	in.buf = append(in.buf, data...)
	return len(data), nil
}

func (in *injector) startPassthrough() {
	in.passthrough = true
	in.Header().Del("Content-Length")
	in.ResponseWriter.WriteHeader(in.statusCode)
	in.headerWritten = true
}

func (in *injector) finalize() {
	if in.passthrough {
		return
	}
	if len(in.buf) == 0 {
		if !in.headerWritten {
			in.ResponseWriter.WriteHeader(in.statusCode)
		}
		return
	}
	out := injectTag(in.buf)
	in.Header().Set("Content-Length", strconv.Itoa(len(out)))
	in.ResponseWriter.WriteHeader(in.statusCode)
	_, _ = in.ResponseWriter.Write(out)
}

func injectTag(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(page, scriptTag...)
	}
	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}
