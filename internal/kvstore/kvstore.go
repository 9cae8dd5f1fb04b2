// Package kvstore provides the small persistent key-value slot the
// event cache writes through. Two backends exist: a directory of
// files and a SQLite database.
package kvstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store is a named-slot persistence surface. Get reports presence
// explicitly; a missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// fileStore keeps one file per key in a directory. Writes are atomic
// (temp file + rename) so readers never observe a partial value.
type fileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) a directory-backed store.
func NewFileStore(dir string) (Store, error) {
	if dir == "" {
		return nil, errors.New("kvstore: directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (s *fileStore) Set(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, ".kv-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(key))
}

func (s *fileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *fileStore) Close() error { return nil }

// path maps a key onto a filename, replacing anything that could
// escape the directory.
func (s *fileStore) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}
