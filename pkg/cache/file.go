package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// otherStage holds entries whose key names no known [Stage].
const otherStage = "other"

// FileCache keeps entries as JSON files below dir, one subdirectory per
// [Stage]:
//
//	<dir>/layout/ab/cdef....json
//	<dir>/artifact/01/2345....json
//
// Each file records the full key, so a hash collision reads as a miss.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Stage     Stage     `json:"stage,omitempty"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get implements [Cache]. Unreadable and expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if e.Key != key {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements [Cache].
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := fileEntry{Key: key, Stage: StageOf(key), Data: data, CreatedAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete implements [Cache]. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *FileCache) Close() error { return nil }

// Usage is the footprint of one stage.
type Usage struct {
	Stage   Stage
	Entries int
	Bytes   int64
	Expired int
}

// Usage walks the cache and reports per-stage totals in pipeline order.
// Stages with no entries are included with zero counts.
func (c *FileCache) Usage() ([]Usage, error) {
	now := c.now()
	var out []Usage
	for _, dir := range c.stageDirs() {
		u := Usage{Stage: Stage(filepath.Base(dir))}
		err := walkEntries(dir, func(path string, info fs.FileInfo) {
			u.Entries++
			u.Bytes += info.Size()
			if e, err := readEntry(path); err != nil || e.expired(now) {
				u.Expired++
			}
		})
		if err != nil {
			return nil, err
		}
		if u.Entries > 0 || u.Stage != otherStage {
			out = append(out, u)
		}
	}
	return out, nil
}

// Clear removes the entries of one stage, or of every stage when stage is
// empty, and prunes the emptied directories. It returns the number of
// entries removed.
func (c *FileCache) Clear(stage Stage) (int, error) {
	dirs := c.stageDirs()
	if stage != "" {
		dirs = []string{filepath.Join(c.dir, string(stage))}
	}
	removed := 0
	for _, dir := range dirs {
		err := walkEntries(dir, func(path string, _ fs.FileInfo) {
			if os.Remove(path) == nil {
				removed++
			}
		})
		if err != nil {
			return removed, err
		}
		pruneDirs(dir)
	}
	return removed, nil
}

// Prune removes expired and unreadable entries across all stages.
func (c *FileCache) Prune() (int, error) {
	now := c.now()
	removed := 0
	for _, dir := range c.stageDirs() {
		err := walkEntries(dir, func(path string, _ fs.FileInfo) {
			if e, err := readEntry(path); err == nil && !e.expired(now) {
				return
			}
			if os.Remove(path) == nil {
				removed++
			}
		})
		if err != nil {
			return removed, err
		}
		pruneDirs(dir)
	}
	return removed, nil
}

// path maps a key to <dir>/<stage>/<h[:2]>/<h[2:]>.json with h the key hash.
func (c *FileCache) path(key string) string {
	stage := string(StageOf(key))
	if stage == "" {
		stage = otherStage
	}
	h := Hash([]byte(key))
	return filepath.Join(c.dir, stage, h[:2], h[2:]+".json")
}

func (c *FileCache) stageDirs() []string {
	dirs := make([]string, 0, len(Stages)+1)
	for _, s := range Stages {
		dirs = append(dirs, filepath.Join(c.dir, string(s)))
	}
	return append(dirs, filepath.Join(c.dir, otherStage))
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// walkEntries calls fn for every regular file below dir. A missing dir is
// empty.
func walkEntries(dir string, fn func(path string, info fs.FileInfo)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(path, info)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// pruneDirs removes empty directories below and including root, deepest
// first.
func pruneDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}

var _ Cache = (*FileCache)(nil)
