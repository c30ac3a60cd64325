package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each prompt is written as one JSON object; input lines may be JSON strings or raw digits.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// jsonLine is the wire shape of one output line.
type jsonLine struct {
	Type   string         `json:"type"`
	Prompt *domain.Prompt `json:"prompt,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, prompt domain.Prompt) error {
	return h.Encoder.Encode(jsonLine{Type: "prompt", Prompt: &prompt})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	// Fallback: plain text input
	return text, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonLine{Type: "system", Text: msg})
}
