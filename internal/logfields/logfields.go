// Package logfields holds the canonical slog keys shared by the watch loop
// and the dev server.
package logfields

import "log/slog"

const (
	KeyPath       = "path"
	KeyOp         = "op"
	KeyKind       = "kind"
	KeyFile       = "file"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule"
	KeyClients    = "clients"
	KeyError      = "error"
)

func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Schedule(name string) slog.Attr  { return slog.String(KeySchedule, name) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }

// Error renders err as a string attribute; nil becomes the empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
