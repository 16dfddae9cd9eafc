/*
Package ports defines the driven ports (interfaces) of the Scout research assistant.

These interfaces decouple orchestration from external implementations, allowing
the pipeline to run against different LLM providers, storage backends and
prompt catalogs.

# Key Interfaces

  - Oracle: the remote LLM call (Gemini, Claude or a scripted stub).
  - SessionStore: persists sessions (memory, file, Redis).
  - DistributedLocker: coordinates session access across replicas.
  - PromptSource: resolves step instructions (embedded catalog or Loam directory).
*/
package ports
