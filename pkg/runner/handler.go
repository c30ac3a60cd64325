package runner

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// IOHandler defines the strategy for interacting with the caller.
// This allows switching between Text (console) and JSON (structured) modes.
type IOHandler interface {
	// Output presents a prompt to the caller.
	Output(ctx context.Context, prompt domain.Prompt) error

	// Input reads a response from the caller.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the operator (e.g. status updates).
	// This is distinct from prompt playback.
	SystemOutput(ctx context.Context, msg string) error
}
