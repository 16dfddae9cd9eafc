/*
Package runner executes one user turn against a session.

A turn sanitizes the message, records it as a user event, builds a fresh
Interaction State seeded with the request state and runs the root step.
Every event emitted by the steps is appended to the session and forwarded
to the caller's sink, so transports can stream progress while the turn runs.
The session is saved when the turn ends, whether it succeeded or not.

# Usage

	r := runner.New(root, session.NewManager(store), runner.WithLogger(logger))

	res, err := r.Run(ctx, runner.Request{UserID: "u1", Message: "What is RAG?"}, nil)
	if err != nil {
		return err
	}
	fmt.Println(res.FinalText)
*/
package runner
