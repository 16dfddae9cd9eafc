/*
Package domain contains the core domain models of the Scout research assistant.

It defines the entities threaded through one user turn and persisted across
turns. The package is kept pure and free of I/O, following Hexagonal
Architecture principles: oracles, stores and transports live behind ports.

# Key Entities

  - State: the per-turn key-value store passed explicitly to every step.
  - Event: the record emitted by a step (author, text, state delta, escalation).
  - Triage, SearchQueries, Reflection: typed results decoded at the oracle boundary.
  - OracleRequest / OracleResponse: the shape of one oracle call.
  - Session: the durable log of a conversation (events plus last state snapshot).
*/
package domain
