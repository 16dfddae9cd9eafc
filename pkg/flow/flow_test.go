package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder appends its name to the "trace" key every time it runs.
func recorder(name string) flow.Step {
	return flow.StepFunc(name, func(ctx context.Context, inv *flow.Invocation) error {
		trace := append(inv.State.Strings("trace"), name)
		return inv.Emit(domain.Event{Author: name, Actions: domain.Actions{StateDelta: map[string]any{"trace": trace}}})
	})
}

func escalator(name string) flow.Step {
	return flow.StepFunc(name, func(ctx context.Context, inv *flow.Invocation) error {
		return inv.Emit(domain.Event{Author: name, Actions: domain.Actions{Escalate: true}})
	})
}

func TestSequential_RunsInOrderAndSharesState(t *testing.T) {
	seq := flow.NewSequential("seq", recorder("a"), recorder("b"), recorder("c"))
	inv := flow.NewInvocation("hi", nil)

	require.NoError(t, flow.RunStep(context.Background(), seq, inv))
	assert.Equal(t, []string{"a", "b", "c"}, inv.State.Strings("trace"))
}

func TestSequential_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := flow.StepFunc("failing", func(ctx context.Context, inv *flow.Invocation) error { return boom })
	seq := flow.NewSequential("seq", recorder("a"), failing, recorder("c"))
	inv := flow.NewInvocation("hi", nil)

	err := seq.Run(context.Background(), inv)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, []string{"a"}, inv.State.Strings("trace"))
}

func TestLoop_ExhaustsAtBound(t *testing.T) {
	loop := flow.NewLoop("loop", []flow.Step{recorder("r")}, flow.WithOutcomeKey("outcome"))
	inv := flow.NewInvocation("hi", nil)

	require.NoError(t, loop.Run(context.Background(), inv))
	assert.Len(t, inv.State.Strings("trace"), flow.DefaultMaxIterations)

	report, ok := domain.Lookup[domain.LoopReport](inv.State, "outcome")
	require.True(t, ok)
	assert.Equal(t, domain.LoopExhausted, report.Outcome)
	assert.Equal(t, 3, report.Rounds)
}

func TestLoop_EscalationConvergesAndSkipsRest(t *testing.T) {
	loop := flow.NewLoop("loop", []flow.Step{recorder("a"), escalator("stop"), recorder("never")},
		flow.WithMaxIterations(5), flow.WithOutcomeKey("outcome"))
	inv := flow.NewInvocation("hi", nil)

	require.NoError(t, loop.Run(context.Background(), inv))
	assert.Equal(t, []string{"a"}, inv.State.Strings("trace"))
	assert.False(t, inv.Escalated(), "escalation must not leak out of the loop")

	report, _ := domain.Lookup[domain.LoopReport](inv.State, "outcome")
	assert.Equal(t, domain.LoopConverged, report.Outcome)
	assert.Equal(t, 1, report.Rounds)
}

func TestLoop_InvalidBoundKeepsDefault(t *testing.T) {
	loop := flow.NewLoop("loop", nil, flow.WithMaxIterations(0))
	assert.Equal(t, flow.DefaultMaxIterations, loop.MaxIterations())
}

func TestLoop_HooksFireEveryRound(t *testing.T) {
	var rounds []int
	var final domain.LoopOutcome
	hooks := domain.LifecycleHooks{
		OnLoopIteration: func(ctx context.Context, e *domain.LoopEvent) {
			if e.Outcome == domain.LoopIterating {
				rounds = append(rounds, e.Iteration)
				return
			}
			final = e.Outcome
		},
	}
	loop := flow.NewLoop("loop", []flow.Step{recorder("r")}, flow.WithMaxIterations(2))
	inv := flow.NewInvocation("hi", nil, flow.WithHooks(hooks))

	require.NoError(t, loop.Run(context.Background(), inv))
	assert.Equal(t, []int{1, 2}, rounds)
	assert.Equal(t, domain.LoopExhausted, final)
}

func TestRouter_DispatchAndFallback(t *testing.T) {
	classify := func(route string) flow.Step {
		return flow.StepFunc("classifier", func(ctx context.Context, inv *flow.Invocation) error {
			return inv.Emit(domain.Event{Author: "classifier", Actions: domain.Actions{StateDelta: map[string]any{"route": route}}})
		})
	}
	decide := func(inv *flow.Invocation) string { return inv.State.String("route") }

	tests := []struct {
		route string
		want  string
	}{
		{"left", "L"},
		{"right", "R"},
		{"garbage", "R"},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			r := flow.NewRouter("router", classify(tt.route), decide,
				flow.WithRoute("left", recorder("L")),
				flow.WithRoute("right", recorder("R")),
				flow.WithFallback("right"),
				flow.WithRouteKey("chosen"),
			)
			inv := flow.NewInvocation("hi", nil)
			require.NoError(t, r.Run(context.Background(), inv))
			assert.Equal(t, []string{tt.want}, inv.State.Strings("trace"))
		})
	}
}

func TestRouter_AnnouncesRoute(t *testing.T) {
	var events []domain.Event
	r := flow.NewRouter("router", recorder("classifier"), func(*flow.Invocation) string { return "go" },
		flow.WithRoute("go", recorder("target")),
		flow.WithAnnouncement(func(route string) (string, bool) { return "taking " + route, true }),
		flow.WithRouteKey("chosen"),
	)
	inv := flow.NewInvocation("hi", nil, flow.WithSink(func(e domain.Event) error {
		events = append(events, e)
		return nil
	}))

	require.NoError(t, r.Run(context.Background(), inv))
	require.Len(t, events, 3)
	assert.Equal(t, "router", events[1].Author)
	assert.Equal(t, "taking go", events[1].Text)
	assert.Equal(t, "go", inv.State.String("chosen"))
}

func TestInvocation_EmitStampsEvents(t *testing.T) {
	var got domain.Event
	inv := flow.NewInvocation("hi", nil, flow.WithInvocationID("inv-1"), flow.WithSink(func(e domain.Event) error {
		got = e
		return nil
	}))

	require.NoError(t, inv.Emit(domain.NewEvent("a", "text")))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "inv-1", got.InvocationID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRunStep_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := flow.RunStep(ctx, recorder("a"), flow.NewInvocation("hi", nil))
	assert.ErrorIs(t, err, context.Canceled)
}
