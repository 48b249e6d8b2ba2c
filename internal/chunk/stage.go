package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// maxUploadSize bounds a single staged file. Large files would blow past the
// embedder's token limit anyway; reject them before writing.
const maxUploadSize = 8 << 20 // 8 MiB

// Stager writes upload batches into per-request staging directories.
//
// Each Stage call gets its own directory (os.MkdirTemp), so concurrent
// ingestion requests never collide even for the same tenant.
type Stager struct {
	root   string // parent for staging dirs; "" = os.TempDir()
	logger *slog.Logger
}

// NewStager creates a Stager rooted at dir.
func NewStager(dir string, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{root: dir, logger: logger}
}

// Stage writes files into a fresh staging directory and returns its path
// together with a cleanup function. cleanup is safe to call on every exit
// path; removal failures are logged and swallowed.
//
// prefix namespaces the directory (callers pass the sanitized tenant ID).
// File names are flattened with filepath.Base so uploads cannot escape the
// staging directory.
func (s *Stager) Stage(files []File, prefix string) (dir string, cleanup func(), err error) {
	if prefix == "" {
		prefix = "upload"
	}

	dir, err = os.MkdirTemp(s.root, prefix+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}

	cleanup = func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.Warn("staging cleanup failed", "dir", dir, "error", rmErr)
		}
	}

	for _, f := range files {
		name := filepath.Base(f.Name)
		if name == "." || name == string(filepath.Separator) || name == ".." {
			cleanup()
			return "", nil, fmt.Errorf("invalid upload filename %q", f.Name)
		}

		if err := writeStaged(filepath.Join(dir, name), f.Content); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("staging %q: %w", name, err)
		}
	}

	return dir, cleanup, nil
}

func writeStaged(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, io.LimitReader(r, maxUploadSize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat staged file: %w", err)
	}
	if info.Size() > maxUploadSize {
		return fmt.Errorf("file exceeds %d byte upload limit", maxUploadSize)
	}

	return nil
}
