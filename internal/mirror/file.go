package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination mirrors the ledger to a local CSV file, written
// atomically via a temp file and rename.
type FileDestination struct {
	path string
}

func NewFileDestination(path string) (*FileDestination, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create mirror directory: %w", err)
		}
	}
	return &FileDestination{path: path}, nil
}

func (d *FileDestination) Name() string {
	return "file:" + d.path
}

func (d *FileDestination) WriteSnapshot(_ context.Context, csv []byte) error {
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, csv, 0644); err != nil {
		return fmt.Errorf("write mirror file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace mirror file: %w", err)
	}
	return nil
}
