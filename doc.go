/*
Package scout is a research assistant that answers questions with cited web research.

Every message goes through a router. Casual messages ("thanks!") get a short
reply. Questions run a research team: generate search queries, search and
summarize each one, reflect on whether the findings are enough, and repeat
with follow-up queries for at most three rounds before writing a final answer
with inline citations.

# Architecture

The pipeline is a tree of steps (pkg/flow) sharing one Interaction State per
turn. Steps report what they did through events, which are appended to the
session log and streamed to the caller. The LLM sits behind ports.Oracle
(Gemini, Claude, or a scripted stub), sessions behind ports.SessionStore
(memory, file, Redis) and prompts behind ports.PromptSource (the built-in
catalog or a Loam directory).

# Usage

	cfg := config.Default()
	cfg.Oracle.Provider = config.ProviderOffline
	cfg.Sessions.Backend = config.BackendMemory

	assistant, err := scout.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer assistant.Close()

	res, err := assistant.Ask(ctx, "", "What changed in Go 1.25?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.FinalText)

The same Assistant backs the HTTP server (pkg/adapters/http), the MCP server
(pkg/adapters/mcp) and the scout CLI (cmd/scout).
*/
package scout
