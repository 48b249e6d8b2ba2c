package chunk

import (
	"regexp"
	"strings"
)

// sentenceRe matches sentence-terminated spans of text.
var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Splitter cuts text units into overlapping sentence windows.
// Provenance (source file, section label) carries over to every chunk.
type Splitter struct {
	window  int // sentences per chunk
	overlap int // sentences shared between adjacent chunks
}

// NewSplitter creates a Splitter. Out-of-range arguments fall back to a
// 5-sentence window with 1 sentence of overlap.
func NewSplitter(window, overlap int) *Splitter {
	if window <= 0 {
		window = 5
	}
	if overlap < 0 || overlap >= window {
		overlap = 1
		if overlap >= window {
			overlap = 0
		}
	}
	return &Splitter{window: window, overlap: overlap}
}

// Split cuts a single unit into sentence-window chunks.
// Text without sentence terminators becomes one chunk; empty text yields none.
func (s *Splitter) Split(u Unit) []Unit {
	sentences := sentenceRe.FindAllString(u.Text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(u.Text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []Unit
	for i := 0; i < len(sentences); {
		end := min(i+s.window, len(sentences))

		chunks = append(chunks, Unit{
			Text:         strings.Join(sentences[i:end], " "),
			SourceFile:   u.SourceFile,
			SectionLabel: u.SectionLabel,
		})

		if end == len(sentences) {
			break
		}
		i = end - s.overlap
	}

	return chunks
}

// SplitAll splits every unit, preserving document order.
func (s *Splitter) SplitAll(units []Unit) []Unit {
	var out []Unit
	for _, u := range units {
		out = append(out, s.Split(u)...)
	}
	return out
}
