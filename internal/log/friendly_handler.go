package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// NewFriendlyErrorHandler renders error records as a short "Error: ..." block
// followed by the record attributes, one per line, sorted by key.
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{w: w}
}

type friendlyHandler struct {
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, record slog.Record) error {
	var errText string
	fields := map[string]string{}
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "error":
			errText = valueString(a.Value)
		case "run_id":
		default:
			fields[h.prefix+a.Key] = valueString(a.Value)
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)

	summary := strings.TrimSpace(record.Message)
	if summary == "" {
		summary = errText
	}
	if summary == "" {
		summary = "an unknown error occurred"
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", summary)
	if errText != "" && errText != summary {
		fmt.Fprintf(&sb, "  error: %s\n", errText)
	}
	for _, k := range keys {
		lines := strings.Split(strings.TrimSpace(fields[k]), "\n")
		fmt.Fprintf(&sb, "  %s: %s\n", k, strings.TrimSpace(lines[0]))
		for _, line := range lines[1:] {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(&sb, "    %s\n", line)
			}
		}
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func valueString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+valueString(a.Value))
		}
		return strings.Join(parts, ", ")
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}
