// Package logfields defines canonical structured log field helpers shared across dochost packages.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProject    = "project"
	KeyRoute      = "route"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyVariant    = "build_system"
	KeyRunID      = "run_id"
	KeyStatus     = "status"
	KeyMethod     = "method"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Project(name string) slog.Attr    { return slog.String(KeyProject, name) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Variant(v string) slog.Attr       { return slog.String(KeyVariant, v) }
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
