package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/scout/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_start", "invocation_id", e.InvocationID, "step", e.Step)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			attrs := []any{"invocation_id", e.InvocationID, "step", e.Step, "duration", e.Duration}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.DebugContext(ctx, "step_end", attrs...)
		},
		OnOracleCall: func(ctx context.Context, e *domain.OracleEvent) {
			logger.DebugContext(ctx, "oracle_call", "invocation_id", e.InvocationID, "step", e.Step, "model", e.Model, "tools", e.Tools)
		},
		OnOracleReturn: func(ctx context.Context, e *domain.OracleEvent) {
			logger.DebugContext(ctx, "oracle_return",
				"invocation_id", e.InvocationID,
				"step", e.Step,
				"duration", e.Duration,
				"input_tokens", e.Usage.InputTokens,
				"output_tokens", e.Usage.OutputTokens,
				"is_error", e.IsError,
			)
		},
		OnLoopIteration: func(ctx context.Context, e *domain.LoopEvent) {
			logger.DebugContext(ctx, "loop_round",
				"invocation_id", e.InvocationID,
				"loop", e.Loop,
				"round", label(e.Iteration)+"/"+label(e.Max),
				"outcome", e.Outcome,
			)
		},
	}
}

// Combine chains hook sets. Each callback runs in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStepStart = chain(out.OnStepStart, h.OnStepStart)
		out.OnStepEnd = chain(out.OnStepEnd, h.OnStepEnd)
		out.OnOracleCall = chain(out.OnOracleCall, h.OnOracleCall)
		out.OnOracleReturn = chain(out.OnOracleReturn, h.OnOracleReturn)
		out.OnLoopIteration = chain(out.OnLoopIteration, h.OnLoopIteration)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
