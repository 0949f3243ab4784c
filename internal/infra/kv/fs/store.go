// Package fs implements a key-value Store on the local filesystem.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ethicure/internal/kv/core"
)

const (
	dataSuffix = ".json"
	metaSuffix = ".meta"
)

// Store implements core.Store using one data file per key under root. A
// metadata sidecar (`<file>.meta`) holds the key, revision and timestamps.
// Writes go through a temp file and rename; a mutex serialises access
// through the same Store.
type Store struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a filesystem-backed store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create fs root: %w", err)
	}
	return &Store{root: root, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Driver returns the filesystem driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Root returns the directory holding the entries.
func (s *Store) Root() string { return s.root }

type metaFile struct {
	Key       string    `json:"key"`
	Revision  string    `json:"revision"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// fileName maps a key onto a single path segment so keys containing
// separators can never escape the root.
func fileName(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", core.ErrEmptyKey
	}
	name := url.PathEscape(key)
	if name == "." || name == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return name, nil
}

func (s *Store) pathsFor(key string) (dataPath, metaPath string, err error) {
	name, err := fileName(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, name+dataSuffix)
	metaPath = dataPath + metaSuffix
	return dataPath, metaPath, nil
}

// Get reads the data file and its sidecar.
func (s *Store) Get(_ context.Context, key string) (core.Entry, bool, error) {
	dataPath, metaPath, err := s.pathsFor(key)
	if err != nil {
		return core.Entry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, exists, err := s.currentState(key, dataPath, metaPath)
	if err != nil || !exists {
		return core.Entry{}, false, err
	}
	value, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Entry{}, false, nil
	}
	if err != nil {
		return core.Entry{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	return core.Entry{Key: key, Value: value, Revision: mf.Revision, Size: int64(len(value)), UpdatedAt: mf.UpdatedAt}, true, nil
}

// Set overwrites the key.
func (s *Store) Set(_ context.Context, key string, value []byte) (core.Entry, error) {
	dataPath, metaPath, err := s.pathsFor(key)
	if err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, _, err := s.currentState(key, dataPath, metaPath)
	if err != nil {
		return core.Entry{}, err
	}
	return s.writeLocked(key, dataPath, metaPath, prev, value)
}

// CompareAndSet writes when the current revision matches expected. An empty
// expected revision requires the data file to be absent.
func (s *Store) CompareAndSet(_ context.Context, key, expected string, value []byte) (core.Entry, error) {
	dataPath, metaPath, err := s.pathsFor(key)
	if err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists, err := s.currentState(key, dataPath, metaPath)
	if err != nil {
		return core.Entry{}, err
	}
	if (expected == "" && exists) || (expected != "" && (!exists || prev.Revision != expected)) {
		return core.Entry{}, core.ErrConflict
	}
	return s.writeLocked(key, dataPath, metaPath, prev, value)
}

// Delete removes the data file and sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.pathsFor(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List scans data files under root and filters by prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list fs root: %w", err)
	}
	var out []core.Entry
	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), dataSuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(d.Name(), dataSuffix))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		dataPath := filepath.Join(s.root, d.Name())
		mf, exists, err := s.currentState(key, dataPath, dataPath+metaSuffix)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		out = append(out, core.Entry{Key: key, Revision: mf.Revision, Size: mf.Size, UpdatedAt: mf.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// currentState reports whether key has a data file and returns its metadata.
// A data file without a sidecar is left by an interrupted write or delete; it
// counts as present with a revision taken from the file's modification time.
// A sidecar without a data file counts as absent.
func (s *Store) currentState(key, dataPath, metaPath string) (metaFile, bool, error) {
	info, err := os.Stat(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return metaFile{}, false, nil
	}
	if err != nil {
		return metaFile{}, false, fmt.Errorf("stat %s: %w", key, err)
	}
	mf, err := readMeta(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		modified := info.ModTime().UTC()
		return metaFile{
			Key:       key,
			Revision:  strconv.FormatInt(modified.UnixNano(), 10),
			Size:      info.Size(),
			CreatedAt: modified,
			UpdatedAt: modified,
		}, true, nil
	}
	if err != nil {
		return metaFile{}, false, err
	}
	return mf, true, nil
}

func (s *Store) writeLocked(key, dataPath, metaPath string, prev metaFile, value []byte) (core.Entry, error) {
	if err := writeAtomic(dataPath, value); err != nil {
		return core.Entry{}, fmt.Errorf("write %s: %w", key, err)
	}
	now := s.now()
	mf := metaFile{
		Key:       key,
		Revision:  nextRevision(prev.Revision, now),
		Size:      int64(len(value)),
		CreatedAt: prev.CreatedAt,
		UpdatedAt: now,
	}
	if mf.CreatedAt.IsZero() {
		mf.CreatedAt = now
	}
	b, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return core.Entry{}, err
	}
	if err := writeAtomic(metaPath, b); err != nil {
		return core.Entry{}, fmt.Errorf("write %s metadata: %w", key, err)
	}
	return core.Entry{Key: key, Revision: mf.Revision, Size: mf.Size, UpdatedAt: now}, nil
}

// nextRevision derives a revision from the write time, bumped past the
// previous one so that revisions for a key always increase.
func nextRevision(prev string, now time.Time) string {
	next := now.UnixNano()
	if p, err := strconv.ParseInt(prev, 10, 64); err == nil && next <= p {
		next = p + 1
	}
	return strconv.FormatInt(next, 10)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return mf, nil
}
