package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	// ErrNotAwaiting is returned when keys are pressed while no prompt waits for them.
	ErrNotAwaiting = errors.New("call is not waiting for input")
	// ErrLineClosed is returned when using a line whose call has ended.
	ErrLineClosed = errors.New("line closed")
)

// Exchange is a ports.Renderer for asynchronous channels (HTTP, MCP): every
// call gets a Line where prompts are queued and keypad input is delivered
// by a different goroutine than the engine's.
type Exchange struct {
	mu    sync.Mutex
	lines map[string]*Line
}

// NewExchange creates an empty exchange.
func NewExchange() *Exchange {
	return &Exchange{lines: make(map[string]*Line)}
}

// Open returns the line of a session, creating it on first use.
func (x *Exchange) Open(sessionID string) *Line {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.lines[sessionID]
	if !ok {
		l = &Line{
			ID:      sessionID,
			input:   make(chan string, 1),
			changed: make(chan struct{}),
		}
		x.lines[sessionID] = l
	}
	return l
}

// Line returns an open line.
func (x *Exchange) Line(sessionID string) (*Line, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.lines[sessionID]
	return l, ok
}

// Close ends the line of a session. The closed line stays readable until Remove.
func (x *Exchange) Close(sessionID string) {
	x.mu.Lock()
	l, ok := x.lines[sessionID]
	x.mu.Unlock()
	if ok {
		l.close()
	}
}

// Remove closes the line of a session and forgets it.
func (x *Exchange) Remove(sessionID string) {
	x.mu.Lock()
	l, ok := x.lines[sessionID]
	delete(x.lines, sessionID)
	x.mu.Unlock()
	if ok {
		l.close()
	}
}

// Render implements ports.Renderer.
func (x *Exchange) Render(ctx context.Context, sessionID string, prompt domain.Prompt) (string, error) {
	return x.Open(sessionID).render(ctx, prompt)
}

// View is what the caller has heard after a cursor.
type View struct {
	Prompts  []domain.Prompt `json:"prompts"`
	Awaiting *domain.Prompt  `json:"awaiting,omitempty"`
	Cursor   int             `json:"cursor"`
	Closed   bool            `json:"closed"`
}

// Line is the conversation of one call.
type Line struct {
	ID string

	mu       sync.Mutex
	prompts  []domain.Prompt
	awaiting *domain.Prompt
	input    chan string
	changed  chan struct{}
	closed   bool
}

func (l *Line) render(ctx context.Context, p domain.Prompt) (string, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return "", ErrLineClosed
	}
	l.prompts = append(l.prompts, p)
	if p.ExpectsInput() {
		// Drop keys pressed for an abandoned prompt.
		select {
		case <-l.input:
		default:
		}
		l.awaiting = &p
	}
	l.notifyLocked()
	l.mu.Unlock()

	if !p.ExpectsInput() {
		return "", nil
	}
	select {
	case in := <-l.input:
		return in, nil
	case <-ctx.Done():
		l.mu.Lock()
		l.awaiting = nil
		l.notifyLocked()
		l.mu.Unlock()
		return "", ctx.Err()
	}
}

// Press delivers keypad input to the pending prompt.
func (l *Line) Press(digits string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLineClosed
	}
	if l.awaiting == nil {
		return ErrNotAwaiting
	}
	clean, err := SanitizeInput(digits)
	if err != nil {
		return err
	}
	if err := ValidateInput(l.awaiting.Grammar, clean); err != nil {
		return err
	}
	l.awaiting = nil
	l.input <- clean
	l.notifyLocked()
	return nil
}

// View returns the prompts after cursor without waiting.
func (l *Line) View(cursor int) View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(cursor)
}

// Wait blocks until the line awaits input or closes, or done is closed (the
// call ended), and returns the prompts after cursor.
func (l *Line) Wait(ctx context.Context, cursor int, done <-chan struct{}) (View, error) {
	for {
		l.mu.Lock()
		if l.awaiting != nil || l.closed {
			v := l.viewLocked(cursor)
			l.mu.Unlock()
			return v, nil
		}
		changed := l.changed
		l.mu.Unlock()

		select {
		case <-changed:
		case <-done:
			v := l.View(cursor)
			v.Closed = true
			return v, nil
		case <-ctx.Done():
			return View{}, ctx.Err()
		}
	}
}

func (l *Line) viewLocked(cursor int) View {
	if cursor < 0 || cursor > len(l.prompts) {
		cursor = len(l.prompts)
	}
	v := View{
		Prompts: append([]domain.Prompt(nil), l.prompts[cursor:]...),
		Cursor:  len(l.prompts),
		Closed:  l.closed,
	}
	if l.awaiting != nil {
		p := *l.awaiting
		v.Awaiting = &p
	}
	return v
}

func (l *Line) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.awaiting = nil
	l.notifyLocked()
}

func (l *Line) notifyLocked() {
	close(l.changed)
	l.changed = make(chan struct{})
}
