// Package chunk turns uploaded files into retrievable text units.
//
// The pipeline is: Stage (write uploads to a per-request staging directory) →
// Load (extract text with provenance from each staged file) → Split (sentence
// window chunking). Every exit path removes the staging directory; removal
// failures are logged, never surfaced, because the ingestion result is already
// determined by then.
package chunk

import "io"

// Unit is a unit of text with provenance metadata. Loaders produce one Unit
// per document section; the Splitter turns each into smaller retrieval chunks
// that keep the same provenance.
type Unit struct {
	Text         string
	SourceFile   string // original upload filename
	SectionLabel string // heading or page label, empty when the format has none
}

// File is a single uploaded payload.
type File struct {
	Name    string
	Content io.Reader
}
