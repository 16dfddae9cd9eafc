package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle event.
type HookType string

const (
	HookStepStart    HookType = "step_start"
	HookStepEnd      HookType = "step_end"
	HookOracleCall   HookType = "oracle_call"
	HookOracleReturn HookType = "oracle_return"
	HookLoopRound    HookType = "loop_round"
)

// HookBase contains common fields for all lifecycle events.
type HookBase struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         HookType  `json:"type"`
	InvocationID string    `json:"invocation_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	HookBase
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// OracleEvent represents one oracle call.
type OracleEvent struct {
	HookBase
	Step     string        `json:"step"`
	Model    string        `json:"model,omitempty"`
	Tools    []Tool        `json:"tools,omitempty"`
	Usage    Usage         `json:"usage"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LoopEvent is fired at the start of every loop round and once when the loop ends.
type LoopEvent struct {
	HookBase
	Loop      string      `json:"loop"`
	Iteration int         `json:"iteration"`
	Max       int         `json:"max"`
	Outcome   LoopOutcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for orchestration observability.
type LifecycleHooks struct {
	OnStepStart     func(context.Context, *StepEvent)
	OnStepEnd       func(context.Context, *StepEvent)
	OnOracleCall    func(context.Context, *OracleEvent)
	OnOracleReturn  func(context.Context, *OracleEvent)
	OnLoopIteration func(context.Context, *LoopEvent)
}
