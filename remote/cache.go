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
	"sync"

	"bennypowers.dev/malla/validation"
)

// ReportCache holds parsed reports keyed by plan fingerprint, so plans with
// identical contents share one report. The least recently used entry is
// evicted first.
type ReportCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
}

type cacheEntry struct {
	report *validation.Report
	once   sync.Once
	err    error
}

// NewReportCache creates a cache holding at most maxSize reports.
func NewReportCache(maxSize int) *ReportCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &ReportCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns the cached report for a fingerprint.
func (c *ReportCache) Get(fingerprint string) (*validation.Report, bool) {
	c.mu.Lock()
	entry, ok := c.entries[fingerprint]
	if ok {
		c.touchLocked(fingerprint)
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	entry.once.Do(func() {})
	if entry.err != nil || entry.report == nil {
		return nil, false
	}
	return entry.report, true
}

// Set stores a report.
func (c *ReportCache) Set(fingerprint string, report *validation.Report) {
	entry := &cacheEntry{report: report}
	entry.once.Do(func() {})

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[fingerprint]; exists {
		c.entries[fingerprint] = entry
		return
	}
	c.insertLocked(fingerprint, entry)
}

// GetOrLoad returns the cached report or calls load once per fingerprint,
// even under concurrent access. Failed loads are not cached: waiting
// callers see the error and the next call loads again.
func (c *ReportCache) GetOrLoad(fingerprint string, load func() (*validation.Report, error)) (*validation.Report, error) {
	c.mu.Lock()
	entry, ok := c.entries[fingerprint]
	if ok {
		c.touchLocked(fingerprint)
	} else {
		entry = &cacheEntry{}
		c.insertLocked(fingerprint, entry)
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.report, entry.err = load()
		if entry.err != nil {
			c.drop(fingerprint, entry)
		}
	})
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.report, nil
}

// Invalidate removes a fingerprint from the cache.
func (c *ReportCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(fingerprint)
}

// Clear removes all entries.
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = make([]string, 0, c.maxSize)
}

// Size returns the number of cached entries.
func (c *ReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ReportCache) insertLocked(fingerprint string, entry *cacheEntry) {
	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[fingerprint] = entry
	c.order = append(c.order, fingerprint)
}

// touchLocked marks fingerprint as the most recently used.
func (c *ReportCache) touchLocked(fingerprint string) {
	for i, k := range c.order {
		if k == fingerprint {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), fingerprint)
			return
		}
	}
}

// drop removes entry only if it is still the one cached under fingerprint.
func (c *ReportCache) drop(fingerprint string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[fingerprint] == entry {
		c.removeLocked(fingerprint)
	}
}

func (c *ReportCache) removeLocked(fingerprint string) {
	if _, ok := c.entries[fingerprint]; !ok {
		return
	}
	delete(c.entries, fingerprint)
	for i, k := range c.order {
		if k == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
