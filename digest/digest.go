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

// Package digest indexes a plan in both directions: from grid position to
// course occurrence identity and back.
package digest

import (
	"sync"

	"bennypowers.dev/malla/plan"
)

// PlanDigest is the read-only index of one plan value.
type PlanDigest struct {
	// IDToIndex maps a course code to the positions of its occurrences,
	// ordered by instance: IDToIndex[code][instance] is that occurrence.
	IDToIndex map[string][]plan.CoursePos `json:"idToIndex"`

	// IndexToID mirrors the plan grid: IndexToID[semester][index] is the
	// identity of the slot at that position.
	IndexToID [][]plan.ClassID `json:"indexToId"`
}

// Build indexes p. Instances are numbered per code in semester-major,
// slot-minor order starting at zero.
func Build(p *plan.Plan) *PlanDigest {
	d := &PlanDigest{
		IDToIndex: make(map[string][]plan.CoursePos),
		IndexToID: make([][]plan.ClassID, p.Len()),
	}
	if p == nil {
		return d
	}
	for s, sem := range p.Semesters {
		ids := make([]plan.ClassID, len(sem))
		for i, slot := range sem {
			code := slot.SlotCode()
			positions := d.IDToIndex[code]
			ids[i] = plan.ClassID{Code: code, Instance: len(positions)}
			d.IDToIndex[code] = append(positions, plan.CoursePos{Semester: s, Index: i})
		}
		d.IndexToID[s] = ids
	}
	return d
}

// Locate returns the current position of a course occurrence. Identities
// that no longer exist in the plan report false.
func (d *PlanDigest) Locate(id plan.ClassID) (plan.CoursePos, bool) {
	if d == nil || id.Instance < 0 {
		return plan.CoursePos{}, false
	}
	positions := d.IDToIndex[id.Code]
	if id.Instance >= len(positions) {
		return plan.CoursePos{}, false
	}
	return positions[id.Instance], true
}

// ID returns the identity of the slot at pos.
func (d *PlanDigest) ID(pos plan.CoursePos) (plan.ClassID, bool) {
	if d == nil || pos.Semester < 0 || pos.Semester >= len(d.IndexToID) {
		return plan.ClassID{}, false
	}
	ids := d.IndexToID[pos.Semester]
	if pos.Index < 0 || pos.Index >= len(ids) {
		return plan.ClassID{}, false
	}
	return ids[pos.Index], true
}

// Occurrences returns how many slots carry code.
func (d *PlanDigest) Occurrences(code string) int {
	if d == nil {
		return 0
	}
	return len(d.IDToIndex[code])
}

// Cache remembers the digest of the most recently seen plan. It compares
// plans by pointer, so an unchanged *plan.Plan is never re-indexed, and it
// holds a single entry so replaced plans are released.
type Cache struct {
	mu     sync.Mutex
	plan   *plan.Plan
	digest *PlanDigest
	builds int
}

// NewCache creates an empty digest cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the digest for p, building it if p is not the cached plan.
func (c *Cache) Get(p *plan.Plan) *PlanDigest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.digest != nil && c.plan == p {
		return c.digest
	}
	c.plan = p
	c.digest = Build(p)
	c.builds++
	return c.digest
}

// Reset drops the cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = nil
	c.digest = nil
}

// Builds reports how many digests the cache has computed.
func (c *Cache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
