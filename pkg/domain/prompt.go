package domain

import (
	"fmt"
	"strings"
)

// PromptKind defines whether a prompt collects input.
type PromptKind string

const (
	// PromptSay plays messages and returns without collecting input.
	PromptSay PromptKind = "say"
	// PromptAsk plays messages and collects input constrained by a grammar.
	PromptAsk PromptKind = "ask"
)

// Grammar constrains the input collected by an Ask prompt.
type Grammar struct {
	Type   string `json:"type"`             // e.g. "digits"
	Length int    `json:"length,omitempty"` // 0 means unbounded
}

// DigitsGrammar accepts a fixed number of keypad digits.
func DigitsGrammar(length int) *Grammar {
	return &Grammar{Type: "digits", Length: length}
}

// Message is one text-to-speech segment of a prompt.
type Message struct {
	Text string `json:"text"`
}

// Prompt is the declarative description of what a state presents.
// It is produced by CreateModel and turned into audio by the Renderer.
type Prompt struct {
	Kind     PromptKind `json:"kind"`
	Messages []Message  `json:"messages"`
	Grammar  *Grammar   `json:"grammar,omitempty"`
	// Bargein allows the caller to interrupt playback with input.
	Bargein bool `json:"bargein,omitempty"`
}

// Text joins the prompt messages into a single utterance.
func (p Prompt) Text() string {
	var b strings.Builder
	for _, m := range p.Messages {
		b.WriteString(m.Text)
	}
	return b.String()
}

// ExpectsInput reports whether the renderer should collect input.
func (p Prompt) ExpectsInput() bool {
	return p.Kind == PromptAsk
}

// Segment produces a message from the session at model creation time.
type Segment func(s *Session) Message

// Text is a constant segment.
func Text(format string, args ...any) Segment {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	return func(*Session) Message { return Message{Text: text} }
}

// Plain is a constant segment holding text built elsewhere, such as a
// flight description or a destination name. It is never formatted.
func Plain(text string) Segment {
	return func(*Session) Message { return Message{Text: text} }
}

// VarText renders the current value of a Var followed by a suffix.
// Unset vars render as an empty string.
func VarText(v Var, suffix string) Segment {
	return func(s *Session) Message {
		val, ok := v.Lookup(s)
		if !ok || val == nil {
			return Message{Text: suffix}
		}
		return Message{Text: fmt.Sprint(val) + suffix}
	}
}

// DataText renders a session data key (dotted paths descend into nested maps).
func DataText(key, suffix string) Segment {
	return func(s *Session) Message {
		val, ok := s.Lookup(key)
		if !ok || val == nil {
			return Message{Text: suffix}
		}
		return Message{Text: fmt.Sprint(val) + suffix}
	}
}

// ModelFunc adapts a function into a Behavior.
type ModelFunc func(s *Session) *Prompt

// CreateModel implements Behavior.
func (f ModelFunc) CreateModel(s *Session) *Prompt {
	if f == nil {
		return nil
	}
	return f(s)
}

// Say builds a Behavior that plays the given segments.
func Say(segments ...Segment) Behavior {
	return ModelFunc(func(s *Session) *Prompt {
		return &Prompt{Kind: PromptSay, Messages: resolve(s, segments)}
	})
}

// Ask builds a Behavior that plays the given segments and collects input.
func Ask(grammar *Grammar, segments ...Segment) Behavior {
	return ModelFunc(func(s *Session) *Prompt {
		return &Prompt{Kind: PromptAsk, Messages: resolve(s, segments), Grammar: grammar, Bargein: true}
	})
}

// PassThrough is a Behavior with no renderable model (pure routing state).
var PassThrough Behavior = ModelFunc(nil)

func resolve(s *Session, segments []Segment) []Message {
	msgs := make([]Message, 0, len(segments))
	for _, seg := range segments {
		msgs = append(msgs, seg(s))
	}
	return msgs
}
