package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyIndexID    = "index_id"
	KeyBuildID    = "build_id"
	KeyRepo       = "repository"
	KeySection    = "section"
	KeyModule     = "module"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPattern    = "pattern"
	KeyScope      = "scope"
	KeyRenderer   = "renderer"
	KeyMode       = "mode"
	KeyFlavor     = "flavor"
	KeyQuery      = "query"
	KeyLanguage   = "language"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func IndexID(id string) slog.Attr     { return slog.String(KeyIndexID, id) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Scope(s string) slog.Attr        { return slog.String(KeyScope, s) }
func Renderer(r string) slog.Attr     { return slog.String(KeyRenderer, r) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Flavor(f string) slog.Attr       { return slog.String(KeyFlavor, f) }
func Query(q string) slog.Attr        { return slog.String(KeyQuery, q) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
