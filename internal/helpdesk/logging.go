package helpdesk

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/esfa/deskctl/internal/log"
)

const maxLoggedBody = 1000

// LoggingDoer wraps a Doer and records each exchange at trace level
type LoggingDoer struct {
	wrapped Doer
	logger  *slog.Logger
}

// NewLoggingDoer wraps d with trace logging
func NewLoggingDoer(d Doer, logger *slog.Logger) *LoggingDoer {
	return &LoggingDoer{
		wrapped: d,
		logger:  logger,
	}
}

// Do implements Doer
func (c *LoggingDoer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !c.logger.Enabled(ctx, log.LevelTrace) {
		return c.wrapped.Do(req)
	}

	c.logger.LogAttrs(ctx, log.LevelTrace, "HTTP request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Any("headers", redact(req.Header)),
	)

	start := time.Now()
	resp, err := c.wrapped.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.LogAttrs(ctx, log.LevelTrace, "HTTP request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	attrs := []slog.Attr{
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Any("headers", redact(resp.Header)),
	}
	if resp.StatusCode >= 400 {
		if body, peekErr := peekBody(resp); peekErr == nil && body != "" {
			attrs = append(attrs, slog.String("error_body", body))
		}
	}
	c.logger.LogAttrs(ctx, log.LevelTrace, "HTTP response", attrs...)

	return resp, nil
}

func redact(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		key := strings.ToLower(k)
		if key == "authorization" || key == "set-cookie" || strings.Contains(key, "token") {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// peekBody reads the body and puts an identical reader back on resp
func peekBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if len(data) > maxLoggedBody {
		return fmt.Sprintf("%s... [truncated, total %d bytes]", data[:maxLoggedBody], len(data)), nil
	}
	return string(data), nil
}
