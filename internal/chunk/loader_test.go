package chunk

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoad_PlainText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "facts.txt", "The sky is blue.\n")

	units, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Load() returned %d units, want 1", len(units))
	}
	if units[0].Text != "The sky is blue." {
		t.Errorf("units[0].Text = %q", units[0].Text)
	}
	if units[0].SourceFile != "facts.txt" {
		t.Errorf("units[0].SourceFile = %q, want facts.txt", units[0].SourceFile)
	}
	if units[0].SectionLabel != "" {
		t.Errorf("units[0].SectionLabel = %q, want empty", units[0].SectionLabel)
	}
}

func TestLoad_MarkdownSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "preamble text\n\n# Setup\ninstall it\n\n## Usage\nrun it\n")

	units, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("Load() returned %d units, want 3: %+v", len(units), units)
	}

	if units[0].SectionLabel != "" || units[0].Text != "preamble text" {
		t.Errorf("preamble unit = %+v", units[0])
	}
	if units[1].SectionLabel != "Setup" || units[1].Text != "install it" {
		t.Errorf("setup unit = %+v", units[1])
	}
	if units[2].SectionLabel != "Usage" || units[2].Text != "run it" {
		t.Errorf("usage unit = %+v", units[2])
	}
}

func TestLoad_UnsupportedFormatFailsBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.txt", "fine content.")
	writeFile(t, dir, "image.png", "\x89PNG")

	if _, err := Load(dir); err == nil {
		t.Error("Load() with unsupported file should fail the whole batch")
	}
}

func TestLoad_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second file.")
	writeFile(t, dir, "a.txt", "first file.")

	units, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("Load() returned %d units, want 2", len(units))
	}
	if units[0].SourceFile != "a.txt" || units[1].SourceFile != "b.txt" {
		t.Errorf("order = [%s, %s], want [a.txt, b.txt]", units[0].SourceFile, units[1].SourceFile)
	}
}

func TestLoad_EmptyFileYieldsNoUnits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n")

	units, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("Load() returned %d units, want 0", len(units))
	}
}

func TestHeadingText(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{line: "# Title", want: "Title", ok: true},
		{line: "###### Deep", want: "Deep", ok: true},
		{line: "####### TooDeep", ok: false},
		{line: "#NoSpace", ok: false},
		{line: "plain text", ok: false},
		{line: "  ## Indented  ", want: "Indented", ok: true},
	}
	for _, tt := range tests {
		got, ok := headingText(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("headingText(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}
