package cli

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	CallerID string
	JSON     bool
	Debug    bool
	// Transcript receives a plain-text log of the dialog when set.
	Transcript io.Writer

	Input  io.Reader
	Output io.Writer
	// Plain disables the banner and markdown rendering.
	Plain bool
}

// Execute answers one call on the console: prompts are printed and keypad
// digits are read line by line. Ctrl+C hangs up.
func Execute(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	logger, err := NewLogger(cfg.Log, opts.Debug)
	if err != nil {
		return err
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	backends, err := OpenBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	sbOpts := backends.Options(cfg, logger)
	if opts.Debug {
		sbOpts = append(sbOpts, switchboard.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	sb := switchboard.New(backends.Service, sbOpts...)

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(opts.Input, opts.Output)
	case opts.Plain:
		handler = runner.NewTextHandler(opts.Input, opts.Output)
	default:
		tui.PrintBanner(opts.Output)
		handler = runner.NewTextHandler(opts.Input, opts.Output, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithInputTimeout(cfg.Engine.InputTimeout),
	)
	mws := []runner.Middleware{runner.LoggingMiddleware(logger)}
	if opts.Transcript != nil {
		mws = append(mws, runner.TranscriptMiddleware(opts.Transcript))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var interrupted atomic.Bool
	signals := runner.NewSignalManager()
	defer signals.Stop()
	signals.OnInterrupt(func() {
		interrupted.Store(true)
		cancel()
	})

	snap, runErr := sb.Run(runCtx, runner.Chain(r, mws...), opts.CallerID)
	if runErr != nil {
		logger.Error("call failed", "caller_id", opts.CallerID, "error", runErr)
	}
	if !opts.JSON {
		logCompletion(opts.Output, snap, runErr, interrupted.Load())
	}
	return handleExecutionError(runErr)
}
