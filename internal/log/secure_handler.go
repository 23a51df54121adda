package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// maskedKeys are attribute keys whose values never reach the output.
// They cover the request headers and cookies the fetcher can be
// configured with, and common credential names.
var maskedKeys = toSet(
	"authorization", "proxy-authorization", "cookie", "set-cookie",
	"x-api-key", "x-auth-token",
	"api_key", "apikey", "api-key", "access_token", "refresh_token",
	"session", "session_id", "sessionid", "sid", "jsessionid",
)

// maskedKeywords mask any key that contains them. A bare "key" is not
// listed: "cache_key" or "primary_key" are not secrets.
var maskedKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// secretShapes match values that are secrets whatever their key is.
var secretShapes = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`), // AWS access key
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

func toSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// isSensitiveKey reports whether values logged under key must be masked.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := maskedKeys[key]; ok {
		return true
	}
	for _, kw := range maskedKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// looksLikeSecret reports whether value has the shape of a credential.
func looksLikeSecret(value string) bool {
	for _, re := range secretShapes {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// SecureHandler is an slog.Handler that scrubs records before passing them on.
//
// Values under sensitive keys and values shaped like credentials are
// replaced with MaskValue. URLs in the message, in string values and in
// error values keep their host and path but lose userinfo passwords and
// secret query parameters, so a broken-link warning still says which
// link broke.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next means slog.Default().Handler().
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, RedactURLs(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(scrub(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler. The attributes are scrubbed once here.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(scrubAll(attrs))}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

func scrubAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = scrub(a)
	}
	return out
}

// scrub returns a with its value masked or its URLs redacted.
func scrub(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubAll(v.Group())...)}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if looksLikeSecret(s) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, RedactURLs(s))
	case slog.KindAny:
		// Fetch errors embed the failing URL.
		if err, ok := v.Any().(error); ok && err != nil {
			if msg := err.Error(); RedactURLs(msg) != msg {
				return slog.String(a.Key, RedactURLs(msg))
			}
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// NewSecureLogger returns a text logger writing scrubbed records to w.
// It logs at Debug when verbose is set and at Warn otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, levelOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, levelOptions(verbose))))
}

func levelOptions(verbose bool) *slog.HandlerOptions {
	if verbose {
		return &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	return &slog.HandlerOptions{Level: slog.LevelWarn}
}
