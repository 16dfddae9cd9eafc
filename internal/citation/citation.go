// Package citation turns search grounding metadata into inline markdown citations.
//
// Grounded replies reference long redirect URLs. While researching, each one
// is replaced by a short stable URL to keep intermediate summaries compact;
// Restore swaps the real URLs back into the final answer.
package citation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
)

// ShortURLPrefix prefixes every short URL handed out by ResolveURLs.
const ShortURLPrefix = "https://vertexaisearch.cloud.google.com/id/"

// Chunk is one retrieved web document.
type Chunk struct {
	URI   string
	Title string
}

// Support ties a span of the reply text to the chunks backing it.
// Indices are byte offsets into the reply.
type Support struct {
	StartIndex   int
	EndIndex     int
	ChunkIndices []int
}

// Grounding is the provider-neutral grounding metadata of one reply.
type Grounding struct {
	Chunks   []Chunk
	Supports []Support
}

// Citation is a span of text with the sources to cite at its end.
type Citation struct {
	StartIndex int
	EndIndex   int
	Segments   []domain.Source
}

// ResolveURLs assigns a short URL to every distinct chunk URI.
// id distinguishes replies so that short URLs stay unique within a turn.
func ResolveURLs(chunks []Chunk, id int) map[string]string {
	resolved := make(map[string]string, len(chunks))
	for idx, chunk := range chunks {
		if _, ok := resolved[chunk.URI]; !ok {
			resolved[chunk.URI] = fmt.Sprintf("%s%d-%d", ShortURLPrefix, id, idx)
		}
	}
	return resolved
}

// Citations builds one Citation per grounding support.
func Citations(g Grounding, resolved map[string]string) []Citation {
	var out []Citation
	for _, support := range g.Supports {
		if support.EndIndex <= support.StartIndex {
			continue
		}
		c := Citation{StartIndex: support.StartIndex, EndIndex: support.EndIndex}
		for _, idx := range support.ChunkIndices {
			if idx < 0 || idx >= len(g.Chunks) {
				continue
			}
			chunk := g.Chunks[idx]
			short, ok := resolved[chunk.URI]
			if !ok {
				continue
			}
			c.Segments = append(c.Segments, domain.Source{
				Label:    label(chunk.Title),
				ShortURL: short,
				URL:      chunk.URI,
			})
		}
		out = append(out, c)
	}
	return out
}

// label keeps the part of a title before the first dot ("go.dev" -> "go").
func label(title string) string {
	if parts := strings.Split(title, "."); len(parts) > 1 {
		return parts[0]
	}
	return title
}

// InsertMarkers appends " [label](short_url)" after every cited span.
// Citations are applied from the end of the text backwards so earlier
// offsets stay valid.
func InsertMarkers(text string, citations []Citation) string {
	sorted := make([]Citation, len(citations))
	copy(sorted, citations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EndIndex != sorted[j].EndIndex {
			return sorted[i].EndIndex > sorted[j].EndIndex
		}
		return sorted[i].StartIndex > sorted[j].StartIndex
	})

	for _, c := range sorted {
		if c.EndIndex > len(text) || len(c.Segments) == 0 {
			continue
		}
		var marker strings.Builder
		for _, seg := range c.Segments {
			fmt.Fprintf(&marker, " [%s](%s)", seg.Label, seg.ShortURL)
		}
		text = text[:c.EndIndex] + marker.String() + text[c.EndIndex:]
	}
	return text
}

// Sources flattens the segments of all citations.
func Sources(citations []Citation) []domain.Source {
	var out []domain.Source
	for _, c := range citations {
		out = append(out, c.Segments...)
	}
	return out
}

// Restore replaces short URLs in text with the real ones and returns the
// distinct sources that the text actually cites, in first-seen order.
func Restore(text string, sources []domain.Source) (string, []domain.Source) {
	var used []domain.Source
	seen := make(map[string]bool)
	for _, src := range sources {
		if src.ShortURL == "" || !cites(text, src.ShortURL) {
			continue
		}
		if !seen[src.URL] {
			seen[src.URL] = true
			used = append(used, src)
		}
	}

	// Longest first, so ".../0-1" never clobbers the prefix of ".../0-12".
	ordered := make([]domain.Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].ShortURL) > len(ordered[j].ShortURL)
	})
	for _, src := range ordered {
		if src.ShortURL != "" {
			text = strings.ReplaceAll(text, src.ShortURL, src.URL)
		}
	}
	return text, used
}

// cites reports whether text contains shortURL not followed by a digit,
// so ".../0-1" does not match inside ".../0-12".
func cites(text, shortURL string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], shortURL)
		if j < 0 {
			return false
		}
		end := i + j + len(shortURL)
		if end == len(text) || text[end] < '0' || text[end] > '9' {
			return true
		}
		i += j + 1
	}
}
