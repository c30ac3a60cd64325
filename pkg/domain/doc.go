/*
Package domain contains the core model of the switchboard dialog engine.

It defines the building blocks of a voice call flow: States that present a prompt
and optionally run asynchronous entry work, guarded Transitions fired by events,
CallFlows grouping states and embedded sub-flows behind a single entry point, and
the Session that carries one call's data, per-flow Var storage and flow stack.
The package performs no I/O and has no dependencies outside the standard library.

# Key Entities

  - State: one conversational turn (prompt model, entry actions, completion event).
  - Transition: an event-keyed edge with an optional Guard over the captured result.
  - CallFlow: a frozen graph of States and FlowRefs; built by a Flow definition.
  - Var: a flow-scoped cell whose values live in the Session, never in the graph.
  - Session: the runtime record of one call, serializable through Snapshot.
*/
package domain
