/*
Package runner connects the dialog engine to the outside world.

Every type here is a ports.Renderer, the single point where prompts leave the
engine and keypad input comes back:

  - Runner: interactive channels driven by an IOHandler (TextHandler for the
    console, JSONHandler for structured pipes), with re-prompting on silence
    or invalid input.
  - Exchange: asynchronous channels (HTTP, MCP) where a Line queues prompts
    and input is pressed by another goroutine.

Middlewares (logging, transcripts) decorate any of them via Chain.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithInputTimeout(10*time.Second),
	)
	engine := runtime.NewEngine(runner.Chain(r, runner.TranscriptMiddleware(os.Stderr)))
*/
package runner
