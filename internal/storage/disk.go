package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// tmpPrefix marks in-flight writes so an external sweep can tell a
// half-written temp file from a committed blob.
const tmpPrefix = ".tmp-"

// DiskStore keeps blobs as flat files under a base directory. The directory
// is created lazily on first write. Writes go to a temp file in the same
// directory and are renamed into place, so a committed key never resolves
// to partial content.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) *DiskStore {
	return &DiskStore{baseDir: baseDir}
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tmpPath := filepath.Join(s.baseDir, tmpPrefix+key)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close blob: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.baseDir, key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

func (s *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.baseDir, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.baseDir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// checkKey rejects anything that could escape the base directory. Keys are
// generated UUIDs, so a violation here means a caller bug.
func checkKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
