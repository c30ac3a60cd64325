package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Middleware decorates a renderer (logging, transcripts, metrics).
type Middleware func(next ports.Renderer) ports.Renderer

// Chain wraps the renderer with the middlewares; the first one is outermost.
func Chain(r ports.Renderer, mws ...Middleware) ports.Renderer {
	for i := len(mws) - 1; i >= 0; i-- {
		r = mws[i](r)
	}
	return r
}

// LoggingMiddleware logs every prompt and the collected answer.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.Renderer) ports.Renderer {
		return ports.RendererFunc(func(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
			start := time.Now()
			input, err := next.Render(ctx, sessionID, p)
			logger.Debug("prompt rendered",
				"session_id", sessionID,
				"kind", p.Kind,
				"input", input,
				"duration", time.Since(start),
				"err", err,
			)
			return input, err
		})
	}
}

// TranscriptMiddleware writes a plain-text transcript of the dialog to w.
func TranscriptMiddleware(w io.Writer) Middleware {
	var mu sync.Mutex
	write := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}
	return func(next ports.Renderer) ports.Renderer {
		return ports.RendererFunc(func(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
			write("[%s] portal: %s\n", sessionID, p.Text())
			input, err := next.Render(ctx, sessionID, p)
			if err == nil && p.ExpectsInput() {
				write("[%s] caller: %s\n", sessionID, input)
			}
			return input, err
		})
	}
}
