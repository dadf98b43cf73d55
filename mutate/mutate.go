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

// Package mutate edits plans. Every operation returns a new plan and leaves
// its input untouched, so older plan values stay valid snapshots for any
// validation still in flight. Positions that do not exist in the plan make
// an operation a no-op that returns the input plan itself.
package mutate

import "bennypowers.dev/malla/plan"

// Move relocates the slot at from to to. The destination semester list is
// extended with empty semesters as needed, and to.Index may be plan.End or
// any index past the last slot to append. Callers check ValidateMove first.
func Move(p *plan.Plan, from, to plan.CoursePos) *plan.Plan {
	slot, ok := p.At(from)
	if !ok || to.Semester < 0 || !validIndex(to.Index) {
		return p
	}

	out := shallow(p)
	extend(out, to.Semester)

	if from.Semester == to.Semester {
		sem := own(out.Semesters[from.Semester], 1)
		index := clamp(to.Index, len(sem))
		if index < from.Index {
			sem = insertAt(sem, index, slot)
			sem = deleteAt(sem, from.Index+1)
		} else {
			sem = deleteAt(sem, from.Index)
			sem = insertAt(sem, clamp(index, len(sem)), slot)
		}
		out.Semesters[from.Semester] = sem
	} else {
		out.Semesters[from.Semester] = deleteAt(own(out.Semesters[from.Semester], 0), from.Index)
		dst := own(out.Semesters[to.Semester], 1)
		out.Semesters[to.Semester] = insertAt(dst, clamp(to.Index, len(dst)), slot)
	}

	trim(out)
	return out
}

// TryMove validates a move under g and applies it. On violation the input
// plan is returned with the violation.
func TryMove(p *plan.Plan, g Guard, from, to plan.CoursePos) (*plan.Plan, *Violation) {
	if v := g.ValidateMove(p, from, to); v != nil {
		return p, v
	}
	return Move(p, from, to), nil
}

// Remove deletes the slot at pos.
func Remove(p *plan.Plan, pos plan.CoursePos) *plan.Plan {
	if _, ok := p.At(pos); !ok {
		return p
	}
	out := shallow(p)
	out.Semesters[pos.Semester] = deleteAt(own(out.Semesters[pos.Semester], 0), pos.Index)
	trim(out)
	return out
}

// Insert places slot at pos, extending the semester list if pos.Semester
// is past the end.
func Insert(p *plan.Plan, pos plan.CoursePos, slot plan.Slot) *plan.Plan {
	if slot == nil || pos.Semester < 0 || !validIndex(pos.Index) {
		return p
	}
	out := shallow(p)
	extend(out, pos.Semester)
	sem := own(out.Semesters[pos.Semester], 1)
	out.Semesters[pos.Semester] = insertAt(sem, clamp(pos.Index, len(sem)), slot)
	trim(out)
	return out
}

// ResolveEquivalence fills the equivalence slot at pos with a concrete
// course worth chosenCredits, keeping the block's credit total consistent:
//
//   - equal credits replace the slot;
//   - fewer credits leave the remainder in a new placeholder right after it;
//   - more credits are taken from other slots of the same block in the
//     semester, scanning from the end. Slots worth no more than the surplus
//     are removed, the first larger one is reduced, and if the semester runs
//     out first the surplus is left for the validator to report.
//
// The slot may be a placeholder or a course already resolved for a block.
func ResolveEquivalence(p *plan.Plan, pos plan.CoursePos, chosenCode string, chosenCredits int) *plan.Plan {
	slot, ok := p.At(pos)
	if !ok || chosenCode == "" || chosenCredits <= 0 {
		return p
	}
	ref, ok := plan.Equivalence(slot)
	if !ok {
		return p
	}

	resolved := plan.ConcreteCourse{
		Code:        chosenCode,
		Equivalence: &plan.EquivalenceRef{Code: ref.Code, Credits: chosenCredits},
	}
	out := shallow(p)
	sem := own(out.Semesters[pos.Semester], 1)

	switch {
	case chosenCredits == ref.Credits:
		sem[pos.Index] = resolved
	case chosenCredits < ref.Credits:
		sem[pos.Index] = resolved
		sem = insertAt(sem, pos.Index+1, plan.EquivalencePlaceholder{
			Code:    ref.Code,
			Credits: ref.Credits - chosenCredits,
		})
	default:
		var index int
		sem, index = absorbSurplus(sem, pos.Index, ref.Code, chosenCredits-ref.Credits)
		sem[index] = resolved
	}

	out.Semesters[pos.Semester] = sem
	trim(out)
	return out
}

// Unresolve turns a course chosen for an equivalence block back into a
// placeholder carrying the same credits.
func Unresolve(p *plan.Plan, pos plan.CoursePos) *plan.Plan {
	slot, ok := p.At(pos)
	if !ok {
		return p
	}
	course, ok := slot.(plan.ConcreteCourse)
	if !ok || course.Equivalence == nil {
		return p
	}
	out := shallow(p)
	sem := own(out.Semesters[pos.Semester], 0)
	sem[pos.Index] = plan.EquivalencePlaceholder{Code: course.Equivalence.Code, Credits: course.Equivalence.Credits}
	out.Semesters[pos.Semester] = sem
	trim(out)
	return out
}

// absorbSurplus takes extra credits of block code from the slots of sem
// other than keep, scanning backward. It returns the compacted semester and
// the new index of keep.
func absorbSurplus(sem plan.Semester, keep int, code string, extra int) (plan.Semester, int) {
	removed := make([]bool, len(sem))
	for i := len(sem) - 1; i >= 0 && extra > 0; i-- {
		if i == keep {
			continue
		}
		ref, ok := plan.Equivalence(sem[i])
		if !ok || ref.Code != code {
			continue
		}
		if ref.Credits <= extra {
			removed[i] = true
			extra -= ref.Credits
			continue
		}
		sem[i] = plan.WithCredits(sem[i], ref.Credits-extra)
		extra = 0
	}

	out := make(plan.Semester, 0, len(sem))
	index := keep
	for i, s := range sem {
		if removed[i] {
			if i < keep {
				index--
			}
			continue
		}
		out = append(out, s)
	}
	return out, index
}

func validIndex(index int) bool {
	return index >= 0 || index == plan.End
}

func clamp(index, length int) int {
	if index == plan.End || index > length {
		return length
	}
	return index
}

// shallow copies the semester list; semesters are shared until own'd.
func shallow(p *plan.Plan) *plan.Plan {
	if p == nil {
		return &plan.Plan{}
	}
	return &plan.Plan{Semesters: append([]plan.Semester(nil), p.Semesters...)}
}

func own(sem plan.Semester, extra int) plan.Semester {
	out := make(plan.Semester, len(sem), len(sem)+extra)
	copy(out, sem)
	return out
}

func extend(p *plan.Plan, semester int) {
	for len(p.Semesters) <= semester {
		p.Semesters = append(p.Semesters, plan.Semester{})
	}
}

func insertAt(sem plan.Semester, index int, s plan.Slot) plan.Semester {
	sem = append(sem, nil)
	copy(sem[index+1:], sem[index:])
	sem[index] = s
	return sem
}

func deleteAt(sem plan.Semester, index int) plan.Semester {
	return append(sem[:index], sem[index+1:]...)
}

// trim drops trailing empty semesters.
func trim(p *plan.Plan) {
	for n := len(p.Semesters); n > 0 && len(p.Semesters[n-1]) == 0; n = len(p.Semesters) {
		p.Semesters = p.Semesters[:n-1]
	}
}
