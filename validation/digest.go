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

package validation

import (
	"sync"

	"bennypowers.dev/malla/digest"
	"bennypowers.dev/malla/plan"
)

// CourseValidation holds the diagnostics attached to one slot.
type CourseValidation struct {
	Superblock string        `json:"superblock"`
	Errors     []*Diagnostic `json:"errors"`
	Warnings   []*Diagnostic `json:"warnings"`
}

// SemesterValidation holds the diagnostics attached to a semester as a
// whole, plus one CourseValidation per slot.
type SemesterValidation struct {
	Errors   []*Diagnostic      `json:"errors"`
	Warnings []*Diagnostic      `json:"warnings"`
	Courses  []CourseValidation `json:"courses"`
}

// Digest is the per-semester, per-slot view of a diagnostic list. The
// diagnostics are shared with the report that produced them and must not
// be modified.
type Digest struct {
	Semesters []SemesterValidation `json:"semesters"`
	// PlanErrors and PlanWarnings hold diagnostics with no targets.
	PlanErrors   []*Diagnostic `json:"planErrors"`
	PlanWarnings []*Diagnostic `json:"planWarnings"`
	IsOutdated   bool          `json:"isOutdated"`
}

// Course returns the validation bucket of the slot at pos.
func (v *Digest) Course(pos plan.CoursePos) (*CourseValidation, bool) {
	if v == nil || pos.Semester < 0 || pos.Semester >= len(v.Semesters) {
		return nil, false
	}
	courses := v.Semesters[pos.Semester].Courses
	if pos.Index < 0 || pos.Index >= len(courses) {
		return nil, false
	}
	return &courses[pos.Index], true
}

// Counts returns the total number of error and warning attachments.
func (v *Digest) Counts() (errors, warnings int) {
	if v == nil {
		return 0, 0
	}
	errors, warnings = len(v.PlanErrors), len(v.PlanWarnings)
	for _, sem := range v.Semesters {
		errors += len(sem.Errors)
		warnings += len(sem.Warnings)
		for _, c := range sem.Courses {
			errors += len(c.Errors)
			warnings += len(c.Warnings)
		}
	}
	return errors, warnings
}

// Build attaches diagnostics to the plan indexed by d. Targets that no
// longer exist in the plan are dropped: they come from a validation run
// that raced an edit, not from a bug.
func Build(p *plan.Plan, d *digest.PlanDigest, diagnostics []Diagnostic, superblocks map[string][]string) *Digest {
	v := &Digest{Semesters: make([]SemesterValidation, p.Len())}
	if p != nil {
		for s, sem := range p.Semesters {
			courses := make([]CourseValidation, len(sem))
			for i := range sem {
				if id, ok := d.ID(plan.CoursePos{Semester: s, Index: i}); ok {
					courses[i].Superblock = superblock(superblocks, id)
				}
			}
			v.Semesters[s].Courses = courses
		}
	}

	for i := range diagnostics {
		diag := &diagnostics[i]
		if diag.IsOutdated() {
			v.IsOutdated = true
		}
		if diag.IsPlanWide() {
			if diag.IsError() {
				v.PlanErrors = append(v.PlanErrors, diag)
			} else {
				v.PlanWarnings = append(v.PlanWarnings, diag)
			}
			continue
		}
		for _, target := range diag.AssociatedTo {
			v.attach(d, diag, target)
		}
	}
	return v
}

func (v *Digest) attach(d *digest.PlanDigest, diag *Diagnostic, target Target) {
	if !target.IsClass() {
		if target.Semester < 0 || target.Semester >= len(v.Semesters) {
			return
		}
		sem := &v.Semesters[target.Semester]
		if diag.IsError() {
			sem.Errors = append(sem.Errors, diag)
		} else {
			sem.Warnings = append(sem.Warnings, diag)
		}
		return
	}

	pos, ok := d.Locate(*target.Class)
	if !ok {
		return
	}
	course, ok := v.Course(pos)
	if !ok {
		return
	}
	if diag.IsError() {
		course.Errors = append(course.Errors, diag)
	} else {
		course.Warnings = append(course.Warnings, diag)
	}
}

func superblock(superblocks map[string][]string, id plan.ClassID) string {
	blocks := superblocks[id.Code]
	if id.Instance >= 0 && id.Instance < len(blocks) {
		return blocks[id.Instance]
	}
	return ""
}

// Cache memoizes the digest of the most recent (plan, report) pair. Both
// pointers are compared on every lookup: a report is never reused against
// a plan it was not cached with.
type Cache struct {
	mu      sync.Mutex
	digests *digest.Cache
	plan    *plan.Plan
	report  *Report
	result  *Digest
	builds  int
}

// NewCache creates an empty validation digest cache backed by digests. A
// nil digests gets a private plan digest cache.
func NewCache(digests *digest.Cache) *Cache {
	if digests == nil {
		digests = digest.NewCache()
	}
	return &Cache{digests: digests}
}

// Get returns the validation digest of p under r. A nil report yields a
// digest with empty buckets and superblocks.
func (c *Cache) Get(p *plan.Plan, r *Report) *Digest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result != nil && c.plan == p && c.report == r {
		return c.result
	}

	var diagnostics []Diagnostic
	var superblocks map[string][]string
	if r != nil {
		diagnostics = r.Diagnostics
		superblocks = r.CourseSuperblocks
	}
	c.plan = p
	c.report = r
	c.result = Build(p, c.digests.Get(p), diagnostics, superblocks)
	c.builds++
	return c.result
}

// PlanDigest returns the identity index for p from the shared digest cache.
func (c *Cache) PlanDigest(p *plan.Plan) *digest.PlanDigest {
	return c.digests.Get(p)
}

// Reset drops the cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = nil
	c.report = nil
	c.result = nil
}

// Builds reports how many digests the cache has computed.
func (c *Cache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
