/*
Package flow provides the orchestration primitives of Scout.

A Step reads and writes the Interaction State carried by an Invocation and
reports progress by emitting events. Composers build larger steps out of
smaller ones:

  - Sequential runs its children strictly in order.
  - Loop repeats its children until one escalates or the round bound is hit.
  - Router runs a classifier and dispatches to one of several routes.
  - LLMStep calls the oracle and stores its typed result in the state.

Every state mutation goes through Invocation.Emit, so the event log of a turn
is a complete replay of how its state was built.
*/
package flow
