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

package mutate

import (
	"fmt"

	"bennypowers.dev/malla/plan"
)

// ViolationType classifies a rejected move.
type ViolationType int

const (
	// DuplicateCourseInSemester means the destination semester already holds
	// a course with the same code.
	DuplicateCourseInSemester ViolationType = iota
	// LockedSemester means the move touches a semester the student has
	// already completed.
	LockedSemester
)

// String returns a human-readable description of the violation type.
func (t ViolationType) String() string {
	switch t {
	case DuplicateCourseInSemester:
		return "duplicate course in semester"
	case LockedSemester:
		return "semester already completed"
	default:
		return "unknown"
	}
}

// Violation explains why a move was rejected. Callers abort the drag and
// keep the current plan.
type Violation struct {
	Type     ViolationType
	Code     string // Course code being moved
	Semester int    // Semester that caused the rejection
}

func (v *Violation) Error() string {
	return fmt.Sprintf("cannot move %s: %s %d", v.Code, v.Type, v.Semester)
}

// Guard carries the student context a move is checked against.
type Guard struct {
	// CompletedThrough is the last semester the student has finished.
	// Slots in semesters up to and including it cannot be moved, and
	// nothing can be moved into them. Negative means none.
	CompletedThrough int
}

// NoGuard checks only the plan's own invariants.
var NoGuard = Guard{CompletedThrough: -1}

// ValidateMove reports whether moving the slot at from to to would put two
// concrete courses with the same code in one semester. A stale from is not
// a violation; Move treats it as a no-op.
func ValidateMove(p *plan.Plan, from, to plan.CoursePos) *Violation {
	return NoGuard.ValidateMove(p, from, to)
}

// ValidateMove checks the plan invariants and the completed-semester lock.
func (g Guard) ValidateMove(p *plan.Plan, from, to plan.CoursePos) *Violation {
	slot, ok := p.At(from)
	if !ok {
		return nil
	}
	if g.CompletedThrough >= 0 {
		if from.Semester <= g.CompletedThrough {
			return &Violation{Type: LockedSemester, Code: slot.SlotCode(), Semester: from.Semester}
		}
		if to.Semester <= g.CompletedThrough {
			return &Violation{Type: LockedSemester, Code: slot.SlotCode(), Semester: to.Semester}
		}
	}

	course, ok := slot.(plan.ConcreteCourse)
	if !ok || to.Semester == from.Semester {
		return nil
	}
	if to.Semester < 0 || to.Semester >= p.Len() {
		return nil
	}
	for _, other := range p.Semesters[to.Semester] {
		if other.SlotCode() == course.Code {
			return &Violation{Type: DuplicateCourseInSemester, Code: course.Code, Semester: to.Semester}
		}
	}
	return nil
}
