package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "SWITCHBOARD_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrInvalidDigits = errors.New("input does not match the keypad grammar")
)

// SanitizeInput cleans caller input by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters.
func SanitizeInput(input string) (string, error) {
	// 1. Enforce Size Limit (reject rather than truncate)
	limit := getMaxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// 3. Strip control characters (ESC, NULL, BEL...) but keep whitespace.
	// This prevents log poisoning and terminal corruption.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

// ValidateInput checks input against the prompt grammar.
// Digit grammars accept only keypad digits, of the exact length when one is set.
func ValidateInput(g *domain.Grammar, input string) error {
	if g == nil || g.Type != "digits" {
		return nil
	}
	if input == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDigits)
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidDigits, input)
		}
	}
	if g.Length > 0 && utf8.RuneCountInString(input) != g.Length {
		return fmt.Errorf("%w: want %d digits, got %q", ErrInvalidDigits, g.Length, input)
	}
	return nil
}
