package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileStore keeps one file per key under a directory. File names are the
// SHA-256 of the key, so any key maps to a safe, fixed-length name.
type FileStore struct {
	dir string
}

// NewFile returns a FileStore rooted at dir, creating it if needed.
func NewFile(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, eris.New("file: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "file: create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "file: read")
	}
	return data, nil
}

// Put writes value to a temporary file in the same directory, syncs it and
// renames it over the target.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return eris.Wrap(err, "file: create temp")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrap(err, "file: write temp")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrap(err, "file: sync temp")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrap(err, "file: close temp")
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		cleanup()
		return eris.Wrap(err, "file: rename")
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrap(err, "file: delete")
	}
	return nil
}

func (s *FileStore) Migrate(context.Context) error { return nil }

func (s *FileStore) Close() error { return nil }
