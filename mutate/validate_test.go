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

package mutate_test

import (
	"testing"

	"bennypowers.dev/malla/mutate"
	"bennypowers.dev/malla/plan"
)

func course(code string) plan.Slot {
	return plan.ConcreteCourse{Code: code}
}

func placeholder(code string, credits int) plan.Slot {
	return plan.EquivalencePlaceholder{Code: code, Credits: credits}
}

func resolved(code, block string, credits int) plan.Slot {
	return plan.ConcreteCourse{Code: code, Equivalence: &plan.EquivalenceRef{Code: block, Credits: credits}}
}

func pos(semester, index int) plan.CoursePos {
	return plan.CoursePos{Semester: semester, Index: index}
}

func TestValidateMove(t *testing.T) {
	p := plan.New(
		plan.Semester{course("MAT1610"), placeholder("OFG", 10), course("FIS1503")},
		plan.Semester{course("MAT1610"), placeholder("OFG", 10)},
		plan.Semester{course("IIC1103")},
	)

	tests := []struct {
		name      string
		from, to  plan.CoursePos
		violation bool
	}{
		{"duplicate code in destination", pos(0, 0), pos(1, 1), true},
		{"duplicate code appended", pos(1, 0), pos(0, plan.End), true},
		{"reorder within semester", pos(0, 0), pos(0, 2), false},
		{"unique code", pos(0, 2), pos(1, 0), false},
		{"placeholder duplicates allowed", pos(0, 1), pos(1, 0), false},
		{"into new semester", pos(0, 0), pos(5, 0), false},
		{"stale origin", pos(4, 0), pos(0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mutate.ValidateMove(p, tt.from, tt.to)
			if (v != nil) != tt.violation {
				t.Fatalf("ValidateMove(%+v, %+v) = %v, expected violation=%v", tt.from, tt.to, v, tt.violation)
			}
			if v != nil && v.Type != mutate.DuplicateCourseInSemester {
				t.Errorf("Expected DuplicateCourseInSemester, got %s", v.Type)
			}
		})
	}
}

func TestGuardLockedSemester(t *testing.T) {
	p := plan.New(
		plan.Semester{course("A")},
		plan.Semester{course("B")},
		plan.Semester{course("C")},
	)
	g := mutate.Guard{CompletedThrough: 0}

	if v := g.ValidateMove(p, pos(0, 0), pos(2, 0)); v == nil || v.Type != mutate.LockedSemester || v.Semester != 0 {
		t.Errorf("Expected moving out of a completed semester to be locked, got %v", v)
	}
	if v := g.ValidateMove(p, pos(2, 0), pos(0, 0)); v == nil || v.Type != mutate.LockedSemester {
		t.Errorf("Expected moving into a completed semester to be locked, got %v", v)
	}
	if v := g.ValidateMove(p, pos(1, 0), pos(2, 0)); v != nil {
		t.Errorf("Expected move between open semesters to pass, got %v", v)
	}
	if v := mutate.NoGuard.ValidateMove(p, pos(0, 0), pos(2, 0)); v != nil {
		t.Errorf("NoGuard should not lock semesters, got %v", v)
	}
}

func TestViolationType_String(t *testing.T) {
	tests := []struct {
		violationType mutate.ViolationType
		expected      string
	}{
		{mutate.DuplicateCourseInSemester, "duplicate course in semester"},
		{mutate.LockedSemester, "semester already completed"},
		{mutate.ViolationType(99), "unknown"},
	}

	for _, tt := range tests {
		if tt.violationType.String() != tt.expected {
			t.Errorf("ViolationType(%d).String() = %q, expected %q", tt.violationType, tt.violationType.String(), tt.expected)
		}
	}
}

func TestTryMove(t *testing.T) {
	p := plan.New(
		plan.Semester{course("A")},
		plan.Semester{course("A"), course("B")},
	)

	out, v := mutate.TryMove(p, mutate.NoGuard, pos(0, 0), pos(1, 0))
	if v == nil || out != p {
		t.Errorf("Expected rejected move to return the input plan, got %v", v)
	}

	out, v = mutate.TryMove(p, mutate.NoGuard, pos(1, 1), pos(0, 0))
	if v != nil {
		t.Fatalf("Unexpected violation: %v", v)
	}
	if got := codes(out); got != "B A | A" {
		t.Errorf("TryMove result = %q", got)
	}
}
