package runner_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_TranscriptAndLogging(t *testing.T) {
	var order []string
	tag := func(name string) runner.Middleware {
		return func(next ports.Renderer) ports.Renderer {
			return ports.RendererFunc(func(ctx context.Context, id string, p domain.Prompt) (string, error) {
				order = append(order, name)
				return next.Render(ctx, id, p)
			})
		}
	}
	base := ports.RendererFunc(func(ctx context.Context, id string, p domain.Prompt) (string, error) {
		if p.ExpectsInput() {
			return "4", nil
		}
		return "", nil
	})

	transcript := &bytes.Buffer{}
	r := runner.Chain(base,
		tag("outer"),
		runner.LoggingMiddleware(logging.NewNop()),
		runner.TranscriptMiddleware(transcript),
		tag("inner"),
	)

	_, err := r.Render(context.Background(), "s1", say("Hi"))
	require.NoError(t, err)
	in, err := r.Render(context.Background(), "s1", ask("Repeat?"))
	require.NoError(t, err)

	assert.Equal(t, "4", in)
	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)
	assert.Equal(t, "[s1] portal: Hi\n[s1] portal: Repeat?\n[s1] caller: 4\n", transcript.String())
}
