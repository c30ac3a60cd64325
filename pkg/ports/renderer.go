package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Renderer turns a prompt model into audio (or text) and collects the caller's input.
// For prompts that do not expect input it returns once playback completes.
// Any error is treated by the engine as a disconnect of the call.
type Renderer interface {
	Render(ctx context.Context, sessionID string, prompt domain.Prompt) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(ctx context.Context, sessionID string, prompt domain.Prompt) (string, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, sessionID string, prompt domain.Prompt) (string, error) {
	return f(ctx, sessionID, prompt)
}
