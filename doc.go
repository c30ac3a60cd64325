/*
Package switchboard is a voice portal built on a dialog-flow state machine engine.

A call is a session moving through a graph of conversational states. Each
state renders a prompt (say something, or ask for keypad digits) and fires an
event; guarded transitions route the event to the next state. Call flows nest:
a flow can embed another one as a single node, and the engine keeps a stack of
active flows so a sub-flow returns to its caller when it ends.

# Architecture

The engine (internal/runtime) only knows the model in pkg/domain and the
Renderer port. Everything else is an adapter:

  - pkg/portal: the reservation portal flows (dashboard, list, search, cancel).
  - pkg/session: running calls, checkpoints, locks and snapshot watchers.
  - pkg/runner: console and JSON renderers, and the Exchange used by the
    HTTP and MCP adapters to feed input from other goroutines.
  - pkg/adapters: memory, redis, file and sqlite storage, chi HTTP API, MCP tools.
  - pkg/persistence/middleware: PII masking and encryption of stored snapshots.
  - pkg/observability: slog, Prometheus and OpenTelemetry lifecycle hooks.

# Usage

	service := memory.NewReservations(flights, users)
	sb := switchboard.New(service, switchboard.WithCallHistory(true))

	// Synchronous call on the console.
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	snap, err := sb.Run(ctx, r, "u-ada")

	// Asynchronous call driven through its line.
	call, err := sb.Dial(ctx, "u-ada")
	line, _ := sb.Line(call.ID)
	view, err := line.Wait(ctx, 0, call.Done())
	err = line.Press("1")
*/
package switchboard
