package flow_test

import (
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	search := flow.NewLLMStep("search", nil, domain.Prompt{}, flow.WithTools(domain.ToolWebSearch))
	loop := flow.NewLoop("loop", []flow.Step{search, recorder("check")}, flow.WithMaxIterations(2))
	root := flow.NewRouter("root", recorder("classify"), func(*flow.Invocation) string { return "b" },
		flow.WithRoute("b", flow.NewSequential("team", loop)),
		flow.WithRoute("a", recorder("reply")),
	)

	d := flow.Describe(root)
	assert.Equal(t, "root", d.Name)
	assert.Equal(t, flow.KindRouter, d.Kind)
	require.Len(t, d.Children, 3)
	assert.Equal(t, []string{"classify", "a", "b"}, []string{d.Children[0].Label, d.Children[1].Label, d.Children[2].Label})

	team := d.Children[2]
	assert.Equal(t, flow.KindSequential, team.Kind)
	require.Len(t, team.Children, 1)

	l := team.Children[0]
	assert.Equal(t, flow.KindLoop, l.Kind)
	assert.Equal(t, 2, l.Max)
	require.Len(t, l.Children, 2)
	assert.Equal(t, flow.KindOracle, l.Children[0].Kind)
	assert.Equal(t, []domain.Tool{domain.ToolWebSearch}, l.Children[0].Tools)
	assert.Equal(t, "2", l.Children[1].Label)
	assert.Equal(t, flow.KindStep, l.Children[1].Kind)
}
