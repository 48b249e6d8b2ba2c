package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions are the file types the loader can extract text from.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Load walks a staging directory and extracts ordered text units from every
// file in it. Files are processed in lexical order so chunk ordering is
// deterministic across runs.
//
// Policy: one unreadable or unsupported file fails the whole batch. The
// alternative (skip and continue) would report a files-processed count that
// silently disagrees with what was actually indexed.
func Load(dir string) ([]Unit, error) {
	// os.Root confines reads to the staging directory; staged names are
	// already flattened but symlink escapes are also off the table this way.
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening staging directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading staging directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var units []Unit
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		ext := strings.ToLower(filepath.Ext(name))
		if !supportedExtensions[ext] {
			return nil, fmt.Errorf("unsupported file type %q in %q", ext, name)
		}

		content, err := root.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", name, err)
		}

		fileUnits := extract(name, ext, string(content))
		units = append(units, fileUnits...)
	}

	return units, nil
}

// extract produces text units for a single file's content.
func extract(name, ext, content string) []Unit {
	switch ext {
	case ".md":
		return extractMarkdown(name, content)
	default:
		text := strings.TrimSpace(content)
		if text == "" {
			return nil
		}
		return []Unit{{Text: text, SourceFile: name}}
	}
}

// extractMarkdown splits a markdown document on ATX headings. Each heading
// starts a new unit labeled with the heading text; content before the first
// heading becomes an unlabeled unit.
func extractMarkdown(name, content string) []Unit {
	var units []Unit
	var label string
	var sb strings.Builder

	flush := func() {
		text := strings.TrimSpace(sb.String())
		sb.Reset()
		if text == "" {
			return
		}
		units = append(units, Unit{Text: text, SourceFile: name, SectionLabel: label})
	}

	for _, line := range strings.Split(content, "\n") {
		if heading, ok := headingText(line); ok {
			flush()
			label = heading
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	flush()

	return units
}

// headingText returns the text of an ATX heading line, levels 1 through 6.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(trimmed[level:]), true
}
