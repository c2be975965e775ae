package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyRunID      = "run_id"
	KeyMode       = "mode"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDest       = "dest"
	KeyTool       = "tool"
	KeyRule       = "rule"
	KeyEvent      = "event"
	KeyWritten    = "written"
	KeySkipped    = "skipped"
	KeyFailed     = "failed"
	KeyCount      = "count"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyClients    = "clients"
	KeySubject    = "subject"
	KeyName       = "name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Dest(d string) slog.Attr         { return slog.String(KeyDest, d) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Rule(r string) slog.Attr         { return slog.String(KeyRule, r) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Written(n int) slog.Attr         { return slog.Int(KeyWritten, n) }
func Skipped(n int) slog.Attr         { return slog.Int(KeySkipped, n) }
func Failed(n int) slog.Attr          { return slog.Int(KeyFailed, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
