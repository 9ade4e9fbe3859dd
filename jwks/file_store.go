package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheFileName is the file name used under os.TempDir() when no
// cache path is configured.
const DefaultCacheFileName = "firebase-jwks-cache.json"

// DefaultCacheFile returns the default on-disk location of the key cache.
func DefaultCacheFile() string {
	return filepath.Join(os.TempDir(), DefaultCacheFileName)
}

// FileStore keeps the snapshot in a single file. The file's modification time
// is the snapshot's FetchedAt.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path. An empty path selects
// DefaultCacheFile().
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCacheFile()
	}
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache file. A missing file is not an error.
func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening key cache %s: %w", s.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading key cache metadata %s: %w", s.path, err)
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading key cache %s: %w", s.path, err)
	}

	return &Snapshot{Raw: raw, FetchedAt: info.ModTime()}, nil
}

// FetchedAt returns the cache file's modification time.
func (s *FileStore) FetchedAt(_ context.Context) (time.Time, bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("reading key cache metadata %s: %w", s.path, err)
	}
	return info.ModTime(), true, nil
}

// Save atomically replaces the cache file: the payload is written to a
// temporary file in the same directory, synced, stamped with FetchedAt and
// renamed over the old file. Readers see either the old or the new content.
func (s *FileStore) Save(_ context.Context, snapshot *Snapshot) error {
	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating key cache directory: %w", err)
	}

	file, err := os.CreateTemp(directory, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary key cache file: %w", err)
	}
	temporaryPath := file.Name()

	if _, err := file.Write(snapshot.Raw); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary key cache file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary key cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary key cache file: %w", err)
	}

	if err := os.Chtimes(temporaryPath, snapshot.FetchedAt, snapshot.FetchedAt); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("stamping temporary key cache file: %w", err)
	}

	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming key cache file into place: %w", err)
	}

	// Best effort: make the rename durable.
	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}
