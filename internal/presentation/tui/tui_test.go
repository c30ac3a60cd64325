package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|____/")
}

func TestNewRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("Press **1** to list your reservations.")
	require.NoError(t, err)
	assert.Contains(t, out, "list your reservations")
}
