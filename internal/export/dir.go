package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes files below a local directory.
type DirSink struct {
	root string
}

// NewDirSink creates a sink writing below root.
func NewDirSink(root string) *DirSink {
	return &DirSink{root: root}
}

func (s *DirSink) Write(_ context.Context, name, _ string, body []byte) error {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
