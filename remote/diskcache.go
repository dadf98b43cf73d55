/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	mfs "bennypowers.dev/malla/fs"
)

// diskCacheSchema is bumped whenever diskEntry changes shape.
const diskCacheSchema uint16 = 1

// DiskCache persists raw report bodies across runs, keyed by plan
// fingerprint. Entries are msgpack-encoded and written to a temp file that
// is renamed into place.
type DiskCache struct {
	mu     sync.RWMutex
	fs     mfs.FileSystem
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

type diskEntry struct {
	Schema      uint16
	Fingerprint string
	Body        []byte
	FetchedAt   time.Time
}

// NewDiskCache stores entries under dir. Entries older than maxAge are
// ignored; zero keeps them forever.
func NewDiskCache(fsys mfs.FileSystem, dir string, maxAge time.Duration) *DiskCache {
	return &DiskCache{fs: fsys, dir: dir, maxAge: maxAge, now: time.Now}
}

// DefaultCacheDir returns the per-user cache directory for reports.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "malla", "reports")
}

func (c *DiskCache) pathFor(fingerprint string) string {
	return filepath.Join(c.dir, fingerprint+".mp")
}

// Get returns the cached body for fingerprint. Missing, stale, corrupt or
// foreign-schema entries are misses.
func (c *DiskCache) Get(fingerprint string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.fs.ReadFile(c.pathFor(fingerprint))
	if err != nil {
		return nil, false
	}
	var entry diskEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Schema != diskCacheSchema || entry.Fingerprint != fingerprint {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(entry.FetchedAt) > c.maxAge {
		return nil, false
	}
	return entry.Body, true
}

// Put stores body under fingerprint.
func (c *DiskCache) Put(fingerprint string, body []byte) error {
	if c == nil {
		return nil
	}
	data, err := msgpack.Marshal(&diskEntry{
		Schema:      diskCacheSchema,
		Fingerprint: fingerprint,
		Body:        body,
		FetchedAt:   c.now(),
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	target := c.pathFor(fingerprint)
	tmp := filepath.Join(c.dir, "tmp-"+uuid.NewString())
	if err := c.fs.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := c.fs.Rename(tmp, target); err != nil {
		return errors.Join(fmt.Errorf("replacing cache entry: %w", err), c.fs.Remove(tmp))
	}
	return nil
}

// Drop removes the entry for fingerprint, if any.
func (c *DiskCache) Drop(fingerprint string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fs.Remove(c.pathFor(fingerprint)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
