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

package edit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bennypowers.dev/malla/plan"
)

var errPosition = errors.New("invalid position")

// ParsePosition reads a 1-based "SEMESTER:SLOT" position. SLOT may be
// "end" to mean after the last slot.
func ParsePosition(s string) (plan.CoursePos, error) {
	sem, slot, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return plan.CoursePos{}, fmt.Errorf("%w %q: expected SEMESTER:SLOT", errPosition, s)
	}
	semester, err := strconv.Atoi(sem)
	if err != nil || semester < 1 {
		return plan.CoursePos{}, fmt.Errorf("%w %q: semester must be a number from 1", errPosition, s)
	}
	if strings.EqualFold(slot, "end") {
		return plan.CoursePos{Semester: semester - 1, Index: plan.End}, nil
	}
	index, err := strconv.Atoi(slot)
	if err != nil || index < 1 {
		return plan.CoursePos{}, fmt.Errorf("%w %q: slot must be a number from 1 or \"end\"", errPosition, s)
	}
	return plan.CoursePos{Semester: semester - 1, Index: index - 1}, nil
}

// FormatPosition is the inverse of ParsePosition.
func FormatPosition(pos plan.CoursePos) string {
	if pos.Index == plan.End {
		return fmt.Sprintf("%d:end", pos.Semester+1)
	}
	return fmt.Sprintf("%d:%d", pos.Semester+1, pos.Index+1)
}

// ParseSlot reads the slot to insert: "CODE" for a course, "BLOCK=CREDITS"
// for an equivalence placeholder, and "CODE@BLOCK=CREDITS" for a course
// chosen for a block.
func ParseSlot(s string) (plan.Slot, error) {
	s = strings.TrimSpace(s)
	head, credits, hasCredits := strings.Cut(s, "=")
	if !hasCredits {
		if s == "" || strings.Contains(s, "@") {
			return nil, fmt.Errorf("invalid slot %q", s)
		}
		return plan.ConcreteCourse{Code: s}, nil
	}
	n, err := strconv.Atoi(credits)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid slot %q: credits must be a positive number", s)
	}
	code, block, chosen := strings.Cut(head, "@")
	switch {
	case code == "":
		return nil, fmt.Errorf("invalid slot %q: missing code", s)
	case !chosen:
		return plan.EquivalencePlaceholder{Code: code, Credits: n}, nil
	case block == "":
		return nil, fmt.Errorf("invalid slot %q: missing block", s)
	default:
		return plan.ConcreteCourse{Code: code, Equivalence: &plan.EquivalenceRef{Code: block, Credits: n}}, nil
	}
}
