package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_MasksKeys(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)phone", "^card_"})
	require.NoError(t, err)
	store := mw(memory.NewStore())

	snap := sampleSnapshot("s1")
	snap.Data["contact"] = map[string]any{"Phone": "555", "city": "Oslo"}
	snap.Vars = map[string]map[string]any{
		"search": {"card_number": "4111", "page": 2},
	}
	require.NoError(t, store.Save(ctx, "s1", snap))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Data["phone"])
	assert.Equal(t, "u-ada", loaded.Data["user_id"])
	contact := loaded.Data["contact"].(map[string]any)
	assert.Equal(t, middleware.Mask, contact["Phone"])
	assert.Equal(t, "Oslo", contact["city"])
	assert.Equal(t, middleware.Mask, loaded.Vars["search"]["card_number"])
	assert.EqualValues(t, 2, loaded.Vars["search"]["page"])

	assert.Equal(t, "+47 555 0101", snap.Data["phone"], "the live snapshot is untouched")
	assert.Equal(t, "555", snap.Data["contact"].(map[string]any)["Phone"])
	assert.Equal(t, "4111", snap.Vars["search"]["card_number"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.ErrorContains(t, err, "invalid PII pattern")
}

func TestChain_MaskThenSeal(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"phone"})
	require.NoError(t, err)
	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(base, pii, seal)
	require.NoError(t, store.Save(ctx, "s1", sampleSnapshot("s1")))

	raw, err := base.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, raw.Data, "__encrypted__")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Data["phone"])
	assert.Equal(t, domain.StatusActive, loaded.Status)
}
