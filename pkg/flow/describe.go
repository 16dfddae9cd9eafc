package flow

import (
	"maps"
	"slices"
	"strconv"

	"github.com/aretw0/scout/pkg/domain"
)

// Kind classifies a step in a Description.
type Kind string

const (
	KindStep       Kind = "step"
	KindOracle     Kind = "oracle"
	KindSequential Kind = "sequential"
	KindLoop       Kind = "loop"
	KindRouter     Kind = "router"
)

// Edge links a composite step to one of its children.
type Edge struct {
	Label string
	Step  Step
}

// Composite is implemented by steps that run other steps.
type Composite interface {
	Step
	Edges() []Edge
}

// Description is a static snapshot of a step tree.
type Description struct {
	Name     string
	Kind     Kind
	Max      int
	Tools    []domain.Tool
	Children []Child
}

// Child is a labelled sub-tree of a Description.
type Child struct {
	Label string
	Description
}

// Describe walks the tree rooted at step.
func Describe(step Step) Description {
	d := Description{Name: step.Name(), Kind: KindStep}
	switch s := step.(type) {
	case *LLMStep:
		d.Kind = KindOracle
		d.Tools = s.tools
	case *Sequential:
		d.Kind = KindSequential
	case *Loop:
		d.Kind = KindLoop
		d.Max = s.max
	case *Router:
		d.Kind = KindRouter
	}
	if c, ok := step.(Composite); ok {
		for _, e := range c.Edges() {
			d.Children = append(d.Children, Child{Label: e.Label, Description: Describe(e.Step)})
		}
	}
	return d
}

// Edges lists the steps in execution order.
func (s *Sequential) Edges() []Edge {
	return indexed(s.steps)
}

// Edges lists the steps of one round.
func (l *Loop) Edges() []Edge {
	return indexed(l.steps)
}

// Edges lists the classifier followed by the routes in key order.
func (r *Router) Edges() []Edge {
	edges := []Edge{{Label: "classify", Step: r.classifier}}
	for _, key := range slices.Sorted(maps.Keys(r.routes)) {
		edges = append(edges, Edge{Label: key, Step: r.routes[key]})
	}
	return edges
}

func indexed(steps []Step) []Edge {
	edges := make([]Edge, len(steps))
	for i, s := range steps {
		edges[i] = Edge{Label: strconv.Itoa(i + 1), Step: s}
	}
	return edges
}
