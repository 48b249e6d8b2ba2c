package rag

import (
	"math"
	"strings"

	"github.com/okanon/oracle/internal/vecstore"
)

const (
	// snippetRuneLimit is where source snippets are cut before the marker.
	snippetRuneLimit = 200

	// snippetMarker is appended to every snippet, truncated or not, so
	// clients render all snippets uniformly.
	snippetMarker = "..."

	// noSectionLabel stands in for passages whose source format has no
	// section structure.
	noSectionLabel = "N/A"

	// unknownFileName stands in for passages missing file provenance.
	unknownFileName = "Unknown"
)

// sourceFromPassage shapes one retrieved passage into the citation form
// returned alongside answers.
func sourceFromPassage(p vecstore.Passage) Source {
	return Source{
		FileName:     fileNameOrUnknown(p.SourceFile),
		SectionLabel: sectionOrNA(p.SectionLabel),
		Snippet:      snippet(p.Text),
		Score:        scoreOrZero(p.Similarity),
	}
}

// snippet cuts text at the rune limit and appends the marker. The marker is
// unconditional, so a 10-character passage still ends in it.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetRuneLimit {
		runes = runes[:snippetRuneLimit]
	}
	return string(runes) + snippetMarker
}

func sectionOrNA(label string) string {
	if strings.TrimSpace(label) == "" {
		return noSectionLabel
	}
	return label
}

func fileNameOrUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return unknownFileName
	}
	return name
}

// scoreOrZero guards against providers that report no usable similarity.
func scoreOrZero(sim float64) float64 {
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0.0
	}
	return sim
}

// SanitizeTenantID reduces a tenant identifier to characters safe for use in
// filesystem paths: letters, digits, hyphen and underscore. Everything else is
// dropped. The result names staging directories only; stored chunks always
// carry the original identifier.
func SanitizeTenantID(tenantID string) string {
	var b strings.Builder
	b.Grow(len(tenantID))
	for _, r := range tenantID {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
