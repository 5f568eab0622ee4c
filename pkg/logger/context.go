package logger

import (
	"context"
	"log/slog"
	"slices"
)

type attrsKey struct{}

// WithAttrs returns a context carrying attrs in addition to the ones already
// stored in ctx. Loggers built by this package add them to every record
// logged with that context.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return context.WithValue(ctx, attrsKey{}, append(slices.Clone(prev), attrs...))
}

// ContextAttrs extracts the attributes stored by WithAttrs.
// They are returned as an inlined group so every attribute appears at the top level.
func ContextAttrs(ctx context.Context) (slog.Attr, bool) {
	attrs, ok := ctx.Value(attrsKey{}).([]slog.Attr)
	if !ok || len(attrs) == 0 {
		return slog.Attr{}, false
	}
	return slog.Attr{Value: slog.GroupValue(attrs...)}, true
}
