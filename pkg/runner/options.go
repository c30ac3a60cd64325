package runner

import (
	"log/slog"
	"time"
)

// DefaultMaxRetries is the number of re-prompts granted to the caller.
const DefaultMaxRetries = 2

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithInputTimeout bounds the wait for each answer.
func WithInputTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.InputTimeout = d
	}
}

// WithMaxRetries sets how many times a prompt is repeated after a silent or invalid answer.
func WithMaxRetries(n int) Option {
	return func(r *Runner) {
		r.MaxRetries = n
	}
}
