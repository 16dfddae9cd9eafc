package citation

import (
	"fmt"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grounding() Grounding {
	return Grounding{
		Chunks: []Chunk{
			{URI: "https://redirect/1", Title: "go.dev"},
			{URI: "https://redirect/2", Title: "Release notes"},
			{URI: "https://redirect/1", Title: "go.dev"},
		},
		Supports: []Support{
			{StartIndex: 0, EndIndex: 9, ChunkIndices: []int{0}},
			{StartIndex: 10, EndIndex: 24, ChunkIndices: []int{1, 7}},
			{StartIndex: 0, EndIndex: 0, ChunkIndices: []int{0}},
		},
	}
}

func TestResolveURLs_DedupesURIs(t *testing.T) {
	resolved := ResolveURLs(grounding().Chunks, 4)

	assert.Len(t, resolved, 2)
	assert.Equal(t, ShortURLPrefix+"4-0", resolved["https://redirect/1"])
	assert.Equal(t, ShortURLPrefix+"4-1", resolved["https://redirect/2"])
}

func TestCitations_SkipsEmptySpansAndBadIndices(t *testing.T) {
	g := grounding()
	cits := Citations(g, ResolveURLs(g.Chunks, 0))

	require.Len(t, cits, 2)
	assert.Equal(t, "go", cits[0].Segments[0].Label)
	require.Len(t, cits[1].Segments, 1)
	assert.Equal(t, "Release notes", cits[1].Segments[0].Label)
}

func TestInsertMarkers(t *testing.T) {
	text := "Go 1.25 is out. It adds new GC."
	cits := []Citation{
		{StartIndex: 0, EndIndex: 15, Segments: []domain.Source{{Label: "go", ShortURL: "s/0"}}},
		{StartIndex: 16, EndIndex: 31, Segments: []domain.Source{{Label: "a", ShortURL: "s/1"}, {Label: "b", ShortURL: "s/2"}}},
		{StartIndex: 0, EndIndex: 99, Segments: []domain.Source{{Label: "oob", ShortURL: "s/x"}}},
	}

	got := InsertMarkers(text, cits)
	assert.Equal(t, "Go 1.25 is out. [go](s/0) It adds new GC. [a](s/1) [b](s/2)", got)
}

func TestRestore(t *testing.T) {
	sources := []domain.Source{
		{Label: "go", ShortURL: ShortURLPrefix + "0-0", URL: "https://go.dev"},
		{Label: "go", ShortURL: ShortURLPrefix + "1-0", URL: "https://go.dev"},
		{Label: "unused", ShortURL: ShortURLPrefix + "2-0", URL: "https://example.com"},
	}
	text := "A [go](" + ShortURLPrefix + "0-0) B [go](" + ShortURLPrefix + "1-0)"

	out, used := Restore(text, sources)
	assert.Equal(t, "A [go](https://go.dev) B [go](https://go.dev)", out)
	require.Len(t, used, 1)
	assert.Equal(t, "https://go.dev", used[0].URL)
}

func TestRestore_NoSourcesIsIdentity(t *testing.T) {
	out, used := Restore("plain answer", nil)
	assert.Equal(t, "plain answer", out)
	assert.Empty(t, used)
}

func TestRestore_LongestShortURLFirst(t *testing.T) {
	sources := []domain.Source{
		{ShortURL: ShortURLPrefix + "0-1", URL: "https://one"},
		{ShortURL: ShortURLPrefix + "0-12", URL: "https://twelve"},
	}

	out, _ := Restore("x "+ShortURLPrefix+"0-12 y "+ShortURLPrefix+"0-1", sources)
	assert.Equal(t, "x https://twelve y https://one", out)
}

func TestRestore_CitedSourcesIgnoreShorterPrefixes(t *testing.T) {
	var sources []domain.Source
	for i := 0; i < 13; i++ {
		sources = append(sources, domain.Source{
			Label:    fmt.Sprintf("site%d", i),
			ShortURL: fmt.Sprintf("%s0-%d", ShortURLPrefix, i),
			URL:      fmt.Sprintf("https://site%d.com", i),
		})
	}
	text := "Only one claim [site12](" + ShortURLPrefix + "0-12)."

	out, used := Restore(text, sources)
	assert.Equal(t, "Only one claim [site12](https://site12.com).", out)
	require.Len(t, used, 1)
	assert.Equal(t, "https://site12.com", used[0].URL)
}

func TestRestore_CitedAtEndOfText(t *testing.T) {
	sources := []domain.Source{
		{ShortURL: ShortURLPrefix + "0-1", URL: "https://one"},
		{ShortURL: ShortURLPrefix + "0-12", URL: "https://twelve"},
	}

	_, used := Restore("see "+ShortURLPrefix+"0-12 and "+ShortURLPrefix+"0-1", sources)
	require.Len(t, used, 2)
	assert.Equal(t, "https://one", used[0].URL)
	assert.Equal(t, "https://twelve", used[1].URL)
}
