package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "Searching", Label("ResearcherAgent"))
	assert.Equal(t, "CustomAgent", Label("CustomAgent"))
}

func TestActivity(t *testing.T) {
	var buf bytes.Buffer
	a := NewActivity(&buf, Plain, false)

	require.NoError(t, a.Handle(domain.NewEvent(domain.AuthorUser, "What is Go?")))
	require.NoError(t, a.Handle(domain.NewEvent("ResearchManager", "Starting research with 1 queries: go")))
	require.NoError(t, a.Handle(domain.NewEvent("ResearcherAgent", "Go is a language.\nMore text.")))
	require.NoError(t, a.Handle(domain.Event{Author: "", Text: "Final **answer**", Final: true}))

	out := buf.String()
	assert.NotContains(t, out, "What is Go?")
	assert.Contains(t, out, "Researching")
	assert.Contains(t, out, "Starting research with 1 queries: go")
	assert.NotContains(t, out, "Go is a language.")
	assert.Contains(t, out, "Final **answer**\n")
}

func TestActivity_Verbose(t *testing.T) {
	var buf bytes.Buffer
	a := NewActivity(&buf, nil, true)

	require.NoError(t, a.Handle(domain.NewEvent("ResearcherAgent", "Go is a language.\nMore text.")))
	assert.Contains(t, buf.String(), "Go is a language.\nMore text.")
}

func TestRenderer(t *testing.T) {
	out, err := NewRenderer(60)("# Title\n\nSome *text*.")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.0.0\n")
	assert.Contains(t, buf.String(), "research assistant v1.0.0")
}
