// Package storage persists each collection as a single JSON array on disk.
//
// Every mutation is lock → read whole array → modify → atomic write →
// unlock. Combined with the reconciliation run guard this preserves
// single-writer semantics without finer-grained locking.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Collection is one JSON-array file holding values of type T.
type Collection[T any] struct {
	path string
	mu   sync.Mutex
}

// Open ensures the parent directory and the file exist (an absent file is
// initialized to an empty array) and returns the collection handle.
func Open[T any](path string) (*Collection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, []byte("[]\n")); err != nil {
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	c := &Collection[T]{path: path}

	// Fail fast on a corrupt file instead of at first use.
	if _, err := c.All(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string { return c.path }

// All returns a snapshot of the collection. Callers own the returned slice.
func (c *Collection[T]) All() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Update runs one read-modify-write cycle under the collection lock. The
// slice returned by fn replaces the file contents; returning an error
// leaves the file untouched.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.path, err)
	}
	return writeAtomic(c.path, append(data, '\n'))
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return items, nil
}

// writeAtomic writes via a temp file in the same directory plus rename, so
// a crash mid-write never leaves a half-written collection behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
