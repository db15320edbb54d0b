package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const fileSuffix = ".save.json"

// FileStore keeps one file per slot under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("save: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: create %s: %w", dir, err)
	}
	return &FileStore{dir: filepath.Clean(dir)}, nil
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+fileSuffix)
}

func (s *FileStore) Load(_ context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSavedRun
	}
	if err != nil {
		return nil, fmt.Errorf("save: read slot %s: %w", slot, err)
	}
	return data, nil
}

// Save writes through a temporary file so a crash never leaves a torn save.
func (s *FileStore) Save(_ context.Context, slot string, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("save: create temp for %s: %w", slot, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("save: write slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("save: close slot %s: %w", slot, err)
	}
	if err := os.Rename(name, s.path(slot)); err != nil {
		os.Remove(name)
		return fmt.Errorf("save: commit slot %s: %w", slot, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(s.path(slot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("save: delete slot %s: %w", slot, err)
	}
	return nil
}

// List returns slot names in lexical order.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), "*"+fileSuffix)
	if err != nil {
		return nil, fmt.Errorf("save: list %s: %w", s.dir, err)
	}
	slots := make([]string, 0, len(matches))
	for _, m := range matches {
		slot := strings.TrimSuffix(m, fileSuffix)
		if ValidSlot(slot) {
			slots = append(slots, slot)
		}
	}
	sort.Strings(slots)
	return slots, nil
}

func (s *FileStore) Close() error { return nil }
