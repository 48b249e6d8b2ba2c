package chunk

import (
	"strings"
	"testing"
)

func TestSplit_SentenceWindows(t *testing.T) {
	s := NewSplitter(2, 0)
	u := Unit{
		Text:       "One. Two. Three. Four. Five.",
		SourceFile: "notes.txt",
	}

	chunks := s.Split(u)
	if len(chunks) != 3 {
		t.Fatalf("Split() returned %d chunks, want 3: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "One. Two." {
		t.Errorf("chunks[0].Text = %q, want %q", chunks[0].Text, "One. Two.")
	}
	if chunks[2].Text != "Five." {
		t.Errorf("chunks[2].Text = %q, want %q", chunks[2].Text, "Five.")
	}
	for i, c := range chunks {
		if c.SourceFile != "notes.txt" {
			t.Errorf("chunks[%d].SourceFile = %q, want notes.txt", i, c.SourceFile)
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	s := NewSplitter(3, 1)
	u := Unit{Text: "A. B. C. D. E."}

	chunks := s.Split(u)
	if len(chunks) != 2 {
		t.Fatalf("Split() returned %d chunks, want 2: %+v", len(chunks), chunks)
	}
	// Second window starts one sentence before the first ended.
	if !strings.HasPrefix(chunks[1].Text, "C.") {
		t.Errorf("chunks[1].Text = %q, want prefix %q", chunks[1].Text, "C.")
	}
}

func TestSplit_NoTerminators(t *testing.T) {
	s := NewSplitter(5, 1)
	chunks := s.Split(Unit{Text: "a bare fragment without punctuation"})
	if len(chunks) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "a bare fragment without punctuation" {
		t.Errorf("chunks[0].Text = %q", chunks[0].Text)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := NewSplitter(5, 1)
	if chunks := s.Split(Unit{Text: "   \n  "}); chunks != nil {
		t.Errorf("Split() on whitespace = %+v, want nil", chunks)
	}
}

func TestSplit_PreservesSectionLabel(t *testing.T) {
	s := NewSplitter(1, 0)
	chunks := s.Split(Unit{Text: "First. Second.", SourceFile: "a.md", SectionLabel: "Intro"})
	if len(chunks) != 2 {
		t.Fatalf("Split() returned %d chunks, want 2", len(chunks))
	}
	for i, c := range chunks {
		if c.SectionLabel != "Intro" {
			t.Errorf("chunks[%d].SectionLabel = %q, want Intro", i, c.SectionLabel)
		}
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.window != 5 || s.overlap != 1 {
		t.Errorf("NewSplitter(0, -1) = window %d overlap %d, want 5/1", s.window, s.overlap)
	}

	// Overlap must stay below the window.
	s = NewSplitter(1, 5)
	if s.overlap != 0 {
		t.Errorf("NewSplitter(1, 5) overlap = %d, want 0", s.overlap)
	}
}
