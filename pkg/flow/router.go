package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/scout/pkg/domain"
)

// Router runs a classifier step and dispatches to the route its result selects.
type Router struct {
	name       string
	classifier Step
	decide     func(*Invocation) string
	routes     map[string]Step
	fallback   string
	announce   func(route string) (string, bool)
	routeKey   string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRoute registers the step run for key.
func WithRoute(key string, step Step) RouterOption {
	return func(r *Router) {
		r.routes[key] = step
	}
}

// WithFallback names the route taken when the decision matches no route.
func WithFallback(key string) RouterOption {
	return func(r *Router) {
		r.fallback = key
	}
}

// WithAnnouncement emits the returned text, authored by the router, before a route runs.
func WithAnnouncement(fn func(route string) (string, bool)) RouterOption {
	return func(r *Router) {
		r.announce = fn
	}
}

// WithRouteKey records the selected route in the state under key.
func WithRouteKey(key string) RouterOption {
	return func(r *Router) {
		r.routeKey = key
	}
}

// NewRouter creates a router. decide reads the state after the classifier ran.
func NewRouter(name string, classifier Step, decide func(*Invocation) string, opts ...RouterOption) *Router {
	r := &Router{
		name:       name,
		classifier: classifier,
		decide:     decide,
		routes:     make(map[string]Step),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the router name.
func (r *Router) Name() string { return r.name }

// Run classifies the turn and runs the selected route.
func (r *Router) Run(ctx context.Context, inv *Invocation) error {
	if err := RunStep(ctx, r.classifier, inv); err != nil {
		return fmt.Errorf("%s: %w", r.classifier.Name(), err)
	}

	key := r.decide(inv)
	step, ok := r.routes[key]
	if !ok {
		inv.Logger().Debug("Unknown route, using fallback", "router", r.name, "route", key, "fallback", r.fallback)
		key = r.fallback
		step = r.routes[key]
	}
	if step == nil {
		return fmt.Errorf("%s: no step registered for route %q", r.name, key)
	}

	ev := domain.Event{Author: r.name}
	if r.routeKey != "" {
		ev.Actions.StateDelta = map[string]any{r.routeKey: key}
	}
	if r.announce != nil {
		if text, ok := r.announce(key); ok {
			ev.Text = text
		}
	}
	if ev.Text != "" || ev.Actions.StateDelta != nil {
		if err := inv.Emit(ev); err != nil {
			return err
		}
	}

	if err := RunStep(ctx, step, inv); err != nil {
		return fmt.Errorf("%s: %w", step.Name(), err)
	}
	return nil
}
