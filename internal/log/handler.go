package log

import (
	"context"
	"log/slog"
)

// NewDualHandler fans records out to a primary handler and mirrors error
// level records to a console handler. Either side may be nil.
func NewDualHandler(primary slog.Handler, console slog.Handler) slog.Handler {
	return &dualHandler{
		primary: primary,
		console: console,
	}
}

type dualHandler struct {
	primary slog.Handler
	console slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.primary != nil && h.primary.Enabled(ctx, level) {
		return true
	}
	return h.mirrors(level) && h.console.Enabled(ctx, level)
}

func (h *dualHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.primary != nil && h.primary.Enabled(ctx, record.Level) {
		if err := h.primary.Handle(ctx, record); err != nil {
			return err
		}
	}

	if h.mirrors(record.Level) && h.console.Enabled(ctx, record.Level) {
		return h.console.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		primary: apply(h.primary, func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) }),
		console: apply(h.console, func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) }),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		primary: apply(h.primary, func(s slog.Handler) slog.Handler { return s.WithGroup(name) }),
		console: apply(h.console, func(s slog.Handler) slog.Handler { return s.WithGroup(name) }),
	}
}

func (h *dualHandler) mirrors(level slog.Level) bool {
	return h.console != nil && level >= slog.LevelError
}

func apply(h slog.Handler, fn func(slog.Handler) slog.Handler) slog.Handler {
	if h == nil {
		return nil
	}
	return fn(h)
}
