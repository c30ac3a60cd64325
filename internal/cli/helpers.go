package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
)

// NewLogger configures the application logger from cfg. Debug forces the
// debug level. Logs go to Stderr, keeping Stdout for the dialog.
func NewLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithOptions(logging.Options{Level: level, Format: logging.Format(cfg.Format)}), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, runner.ErrHangup) ||
		errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// logCompletion reports how the call ended.
func logCompletion(w io.Writer, snap *domain.Snapshot, err error, interrupted bool) {
	if snap == nil {
		return
	}
	at := snap.Current()
	if at == "" && len(snap.History) > 0 {
		at = snap.History[len(snap.History)-1]
	}
	switch {
	case interrupted:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted at '%s'.", at)
	case err != nil:
		printSystemMessage(w, "Call failed at '%s': %v", at, err)
	case snap.Reason == domain.ReasonCancelled:
		printSystemMessage(w, "Caller hung up at '%s'.", at)
	default:
		printSystemMessage(w, "Call %s after %d transitions.", snap.Reason, snap.Steps)
	}
}
