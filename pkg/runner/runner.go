package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	// ErrNoInput is returned when the caller stays silent through every retry.
	ErrNoInput = errors.New("no input received")
	// ErrHangup is returned when the caller asks to leave the call.
	ErrHangup = errors.New("caller hung up")
)

// Runner renders prompts through an IOHandler: it implements ports.Renderer
// for interactive channels (console, JSON lines). Invalid or missing input is
// re-prompted up to MaxRetries times.
type Runner struct {
	// Handler is the strategy for IO.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// InputTimeout bounds the wait for each answer (0 waits forever).
	InputTimeout time.Duration

	// MaxRetries is the number of re-prompts after a silent or invalid answer.
	MaxRetries int
}

// NewRunner creates a Runner on Stdin/Stdout unless a handler is provided.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:     logging.NewNop(),
		MaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Render implements ports.Renderer.
func (r *Runner) Render(ctx context.Context, sessionID string, prompt domain.Prompt) (string, error) {
	if err := r.Handler.Output(ctx, prompt); err != nil {
		return "", fmt.Errorf("output error: %w", err)
	}
	if !prompt.ExpectsInput() {
		return "", nil
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := r.Handler.Output(ctx, prompt); err != nil {
				return "", fmt.Errorf("output error: %w", err)
			}
		}

		val, err := r.read(ctx)
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			r.Logger.Debug("no input", "session_id", sessionID, "attempt", attempt)
			if attempt >= r.MaxRetries {
				return "", ErrNoInput
			}
			continue
		case errors.Is(err, io.EOF):
			return "", ErrHangup
		case err != nil:
			return "", fmt.Errorf("input error: %w", err)
		}

		if val == "exit" || val == "quit" || val == "hangup" {
			return "", ErrHangup
		}

		clean, err := SanitizeInput(val)
		if err == nil {
			err = ValidateInput(prompt.Grammar, clean)
		}
		if err != nil {
			r.Logger.Debug("rejected input", "session_id", sessionID, "err", err)
			if attempt >= r.MaxRetries {
				return "", fmt.Errorf("%w: %v", ErrNoInput, err)
			}
			_ = r.Handler.SystemOutput(ctx, fmt.Sprintf("%v. Please try again.", err))
			continue
		}
		return clean, nil
	}
}

func (r *Runner) read(ctx context.Context) (string, error) {
	if r.InputTimeout <= 0 {
		return r.Handler.Input(ctx)
	}
	inputCtx, cancel := context.WithTimeout(ctx, r.InputTimeout)
	defer cancel()
	val, err := r.Handler.Input(inputCtx)
	if err != nil && inputCtx.Err() != nil && ctx.Err() == nil {
		return "", context.DeadlineExceeded
	}
	return val, err
}
