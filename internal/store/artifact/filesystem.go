// Package artifact stores named model blobs as files in one directory.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/store"
)

// FileStore keeps each artifact as <dir>/<name>. Writes are staged in a
// temporary directory and renamed into place, so a reader sees either the old
// or the new content of a file, never a partial one.
type FileStore struct {
	dir string
	mu  sync.Mutex // serializes writers
}

var _ store.ArtifactStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact directory cannot be empty")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory artifacts live in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Exists(_ context.Context, name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat artifact %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("artifact %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStore) Write(ctx context.Context, name string, data []byte) error {
	return s.WriteAll(ctx, map[string][]byte{name: data})
}

// WriteAll stages every blob before moving any of them into place. A failure
// while staging leaves the existing artifacts untouched.
func (s *FileStore) WriteAll(ctx context.Context, blobs map[string][]byte) error {
	if len(blobs) == 0 {
		return nil
	}
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		if _, err := s.path(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", s.dir, err)
	}
	staging := filepath.Join(s.dir, ".staging-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			log.WithError(err).WithField("dir", staging).Warn("failed to remove artifact staging directory")
		}
	}()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileSync(filepath.Join(staging, name), blobs[name]); err != nil {
			return fmt.Errorf("stage artifact %s: %w", name, err)
		}
	}
	for _, name := range names {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("publish artifact %s: %w", name, err)
		}
	}
	return nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
