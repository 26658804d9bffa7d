package logging

import (
	"context"
	"log/slog"
	"regexp"
	"slices"

	"github.com/m-mizutani/masq"
)

// Values that carry vendor credentials. Some vendors authenticate with an
// Authorization header, others with a key in the endpoint's query string.
var (
	authHeaderPattern = regexp.MustCompile(`(?i)^(bearer|basic|token)\s+\S+`)
	keyInURLPattern   = regexp.MustCompile(`(?i)[?&](api_?key|token|access_token|key)=[^&]+`)
	jwtPattern        = regexp.MustCompile(`^eyJ[\w-]*\.eyJ[\w-]*\.[\w-]*$`)
)

// secretFields are attribute and struct field names whose values are never
// logged.
var secretFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"apikey",
	"access_token",
	"accessToken",
	"authorization",
	"Authorization",
	"cookie",
	"credentials",
}

// RedactOptions returns the masq options used by every logger. Callers
// may append their own.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(secretFields)+5)
	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(authHeaderPattern),
		masq.WithRegex(keyInURLPattern),
		masq.WithRegex(jwtPattern),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr function that masks secrets
// using RedactOptions plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}

// redactingHandler runs replaceAttr over every attribute before passing the
// record on. charmbracelet/log ignores slog's ReplaceAttr, so the pretty
// format needs this wrapper.
type redactingHandler struct {
	next        slog.Handler
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
	groups      []string
}

func newRedactingHandler(next slog.Handler, replaceAttr func([]string, slog.Attr) slog.Attr) *redactingHandler {
	return &redactingHandler{next: next, replaceAttr: replaceAttr}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.replaceAttr(h.groups, a))
		return true
	})

	return h.next.Handle(ctx, redacted)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	replaced := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		replaced[i] = h.replaceAttr(h.groups, a)
	}

	return &redactingHandler{next: h.next.WithAttrs(replaced), replaceAttr: h.replaceAttr, groups: h.groups}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	groups := append(slices.Clone(h.groups), name)

	return &redactingHandler{next: h.next.WithGroup(name), replaceAttr: h.replaceAttr, groups: groups}
}
