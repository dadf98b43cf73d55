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

package digest_test

import (
	"reflect"
	"testing"

	"bennypowers.dev/malla/digest"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/testutil"
)

func loadBasic(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.Parse(testutil.LoadFixtureFile(t, "plans/basic.json"))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return p
}

func TestBuildInstances(t *testing.T) {
	d := digest.Build(loadBasic(t))

	expected := [][]plan.ClassID{
		{{Code: "MAT1610", Instance: 0}, {Code: "OFG", Instance: 0}},
		{{Code: "MAT1620", Instance: 0}, {Code: "FIL2001", Instance: 0}},
		{{Code: "MAT1610", Instance: 1}},
	}
	if !reflect.DeepEqual(d.IndexToID, expected) {
		t.Errorf("IndexToID = %+v\nexpected %+v", d.IndexToID, expected)
	}

	positions := d.IDToIndex["MAT1610"]
	if len(positions) != 2 {
		t.Fatalf("Expected 2 MAT1610 occurrences, got %d", len(positions))
	}
	if positions[1] != (plan.CoursePos{Semester: 2, Index: 0}) {
		t.Errorf("Second MAT1610 at %+v, expected {2 0}", positions[1])
	}
}

func TestBuildBijection(t *testing.T) {
	plans := []*plan.Plan{
		loadBasic(t),
		plan.New(),
		plan.New(plan.Semester{}, plan.Semester{plan.ConcreteCourse{Code: "A"}}),
		plan.New(
			plan.Semester{plan.ConcreteCourse{Code: "A"}, plan.ConcreteCourse{Code: "A"}},
			plan.Semester{plan.EquivalencePlaceholder{Code: "OFG", Credits: 5}, plan.ConcreteCourse{Code: "A"}},
			plan.Semester{plan.EquivalencePlaceholder{Code: "OFG", Credits: 5}},
		),
	}

	for _, p := range plans {
		d := digest.Build(p)
		for s, sem := range p.Semesters {
			for i := range sem {
				pos := plan.CoursePos{Semester: s, Index: i}
				id, ok := d.ID(pos)
				if !ok {
					t.Fatalf("No id for %+v", pos)
				}
				back, ok := d.Locate(id)
				if !ok || back != pos {
					t.Errorf("Locate(ID(%+v)) = %+v, %v", pos, back, ok)
				}
			}
		}
		if total := countPositions(d); total != p.CountSlots() {
			t.Errorf("IDToIndex holds %d positions, plan has %d slots", total, p.CountSlots())
		}
	}
}

func countPositions(d *digest.PlanDigest) int {
	n := 0
	for _, positions := range d.IDToIndex {
		n += len(positions)
	}
	return n
}

func TestBuildIdempotent(t *testing.T) {
	p := loadBasic(t)
	first := digest.Build(p)
	for range 3 {
		if again := digest.Build(p); !reflect.DeepEqual(first, again) {
			t.Fatalf("Build is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestLocateStale(t *testing.T) {
	d := digest.Build(loadBasic(t))

	if _, ok := d.Locate(plan.ClassID{Code: "MAT1610", Instance: 2}); ok {
		t.Error("Expected third MAT1610 occurrence to be unresolvable")
	}
	if _, ok := d.Locate(plan.ClassID{Code: "IIC2233", Instance: 0}); ok {
		t.Error("Expected unknown code to be unresolvable")
	}
	if _, ok := d.ID(plan.CoursePos{Semester: 9, Index: 0}); ok {
		t.Error("Expected missing semester to have no id")
	}
	if d.Occurrences("MAT1610") != 2 {
		t.Errorf("Occurrences(MAT1610) = %d, expected 2", d.Occurrences("MAT1610"))
	}
}

func TestCacheByIdentity(t *testing.T) {
	cache := digest.NewCache()
	p := loadBasic(t)

	first := cache.Get(p)
	if second := cache.Get(p); second != first {
		t.Error("Expected the same digest for an unchanged plan pointer")
	}
	if cache.Builds() != 1 {
		t.Errorf("Expected 1 build, got %d", cache.Builds())
	}

	// Equal contents, different identity: recompute.
	clone := p.Clone()
	if cache.Get(clone) == first {
		t.Error("Expected a fresh digest for a different plan pointer")
	}
	if cache.Builds() != 2 {
		t.Errorf("Expected 2 builds, got %d", cache.Builds())
	}

	cache.Reset()
	cache.Get(clone)
	if cache.Builds() != 3 {
		t.Errorf("Expected rebuild after Reset, got %d builds", cache.Builds())
	}
}
