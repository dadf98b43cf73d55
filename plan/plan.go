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

// Package plan provides the semester plan data model: semesters of course
// slots, the stable identity of course occurrences, and grid positions.
package plan

// End is the sentinel CoursePos.Index meaning "after the last slot".
const End = -1

// Slot is one position within a semester. It is either a ConcreteCourse or
// an EquivalencePlaceholder; no other implementations exist.
type Slot interface {
	// SlotCode returns the course code or the equivalence block code.
	SlotCode() string
	isSlot()
}

// EquivalenceRef records the equivalence block a concrete course was chosen
// to satisfy, and the credit weight currently allocated to that block.
type EquivalenceRef struct {
	Code    string
	Credits int
}

// ConcreteCourse is a specific course occupying a slot.
type ConcreteCourse struct {
	Code string
	// Equivalence is set when the course was picked to fill a generic block.
	Equivalence *EquivalenceRef
}

// EquivalencePlaceholder is an unresolved generic slot, such as
// "10 credits of free elective".
type EquivalencePlaceholder struct {
	Code    string
	Credits int
}

func (c ConcreteCourse) SlotCode() string         { return c.Code }
func (ConcreteCourse) isSlot()                    {}
func (e EquivalencePlaceholder) SlotCode() string { return e.Code }
func (EquivalencePlaceholder) isSlot()            {}

// Equivalence returns the block code and credit weight a slot carries:
// the placeholder itself, or the reference of a resolved concrete course.
// Plain concrete courses report false.
func Equivalence(s Slot) (EquivalenceRef, bool) {
	switch v := s.(type) {
	case EquivalencePlaceholder:
		return EquivalenceRef{Code: v.Code, Credits: v.Credits}, true
	case ConcreteCourse:
		if v.Equivalence != nil {
			return *v.Equivalence, true
		}
	}
	return EquivalenceRef{}, false
}

// WithCredits returns a copy of s whose equivalence credit weight is set to
// credits. Slots without an equivalence are returned unchanged.
func WithCredits(s Slot, credits int) Slot {
	switch v := s.(type) {
	case EquivalencePlaceholder:
		v.Credits = credits
		return v
	case ConcreteCourse:
		if v.Equivalence == nil {
			return v
		}
		ref := *v.Equivalence
		ref.Credits = credits
		v.Equivalence = &ref
		return v
	}
	return s
}

// Semester is an ordered list of slots.
type Semester []Slot

// Plan is an ordered list of semesters. Plans are treated as immutable
// values: every edit produces a new *Plan, and caches key on the pointer.
type Plan struct {
	Semesters []Semester
}

// ClassID identifies one occurrence of a course code: Instance is the
// zero-based count of earlier slots with the same code, scanning semesters
// in order and slots left to right.
type ClassID struct {
	Code     string `json:"code"`
	Instance int    `json:"instance"`
}

// CoursePos is the current grid location of a slot. Positions shift under
// mutation; use ClassID for anything that must survive an edit.
type CoursePos struct {
	Semester int `json:"semester"`
	Index    int `json:"index"`
}

// New builds a plan from semesters.
func New(semesters ...Semester) *Plan {
	return &Plan{Semesters: semesters}
}

// Len returns the number of semesters.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Semesters)
}

// At returns the slot at pos, or false if pos is outside the plan.
func (p *Plan) At(pos CoursePos) (Slot, bool) {
	if p == nil || pos.Semester < 0 || pos.Semester >= len(p.Semesters) {
		return nil, false
	}
	sem := p.Semesters[pos.Semester]
	if pos.Index < 0 || pos.Index >= len(sem) {
		return nil, false
	}
	return sem[pos.Index], true
}

// Clone copies the semester arrays. Slots are values, so the result shares
// nothing mutable with p.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return &Plan{}
	}
	out := &Plan{Semesters: make([]Semester, len(p.Semesters))}
	for i, sem := range p.Semesters {
		out.Semesters[i] = append(Semester(nil), sem...)
	}
	return out
}

// CountSlots returns the total number of slots across all semesters.
func (p *Plan) CountSlots() int {
	n := 0
	if p == nil {
		return n
	}
	for _, sem := range p.Semesters {
		n += len(sem)
	}
	return n
}

// BlockCredits sums the credit weight tagged with equivalence code in one
// semester, counting placeholders and resolved courses alike.
func (p *Plan) BlockCredits(semester int, code string) int {
	if p == nil || semester < 0 || semester >= len(p.Semesters) {
		return 0
	}
	total := 0
	for _, s := range p.Semesters[semester] {
		if ref, ok := Equivalence(s); ok && ref.Code == code {
			total += ref.Credits
		}
	}
	return total
}
