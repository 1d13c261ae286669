package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const appDirName = "storytime"

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStore keeps one file per key under dir. Writes go through a temp file
// followed by a rename so a crash never leaves a half-written blob behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// (with parents) on the first Set if it does not exist. Pass an empty string
// to use the default XDG state path.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultStateDir()
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the blobs.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	// The caller may have given up while the value was being written.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.Path(key)); err != nil {
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	committed = true
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

// DefaultStateDir returns ~/.local/state/storytime, respecting
// XDG_STATE_HOME if set.
func DefaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
