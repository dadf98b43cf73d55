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

package plan_test

import (
	"errors"
	"testing"

	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/testutil"
)

func TestAt(t *testing.T) {
	p := plan.New(
		plan.Semester{plan.ConcreteCourse{Code: "MAT1610"}},
		plan.Semester{},
	)

	tests := []struct {
		name string
		pos  plan.CoursePos
		code string
		ok   bool
	}{
		{"first slot", plan.CoursePos{Semester: 0, Index: 0}, "MAT1610", true},
		{"past end of semester", plan.CoursePos{Semester: 0, Index: 1}, "", false},
		{"empty semester", plan.CoursePos{Semester: 1, Index: 0}, "", false},
		{"missing semester", plan.CoursePos{Semester: 5, Index: 0}, "", false},
		{"negative index", plan.CoursePos{Semester: 0, Index: -1}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := p.At(tt.pos)
			if ok != tt.ok {
				t.Fatalf("At(%+v) ok = %v, expected %v", tt.pos, ok, tt.ok)
			}
			if ok && slot.SlotCode() != tt.code {
				t.Errorf("At(%+v) = %q, expected %q", tt.pos, slot.SlotCode(), tt.code)
			}
		})
	}
}

func TestEquivalence(t *testing.T) {
	tests := []struct {
		name    string
		slot    plan.Slot
		ok      bool
		code    string
		credits int
	}{
		{"placeholder", plan.EquivalencePlaceholder{Code: "OFG", Credits: 10}, true, "OFG", 10},
		{"resolved course", plan.ConcreteCourse{Code: "FIL2001", Equivalence: &plan.EquivalenceRef{Code: "OFG", Credits: 5}}, true, "OFG", 5},
		{"plain course", plan.ConcreteCourse{Code: "MAT1610"}, false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := plan.Equivalence(tt.slot)
			if ok != tt.ok {
				t.Fatalf("Equivalence ok = %v, expected %v", ok, tt.ok)
			}
			if ref.Code != tt.code || ref.Credits != tt.credits {
				t.Errorf("Equivalence = %+v, expected {%s %d}", ref, tt.code, tt.credits)
			}
		})
	}
}

func TestWithCreditsDoesNotAlias(t *testing.T) {
	ref := &plan.EquivalenceRef{Code: "OFG", Credits: 5}
	orig := plan.ConcreteCourse{Code: "FIL2001", Equivalence: ref}

	updated := plan.WithCredits(orig, 2)

	if ref.Credits != 5 {
		t.Errorf("WithCredits mutated the original reference: %d", ref.Credits)
	}
	got, _ := plan.Equivalence(updated)
	if got.Credits != 2 {
		t.Errorf("Expected 2 credits, got %d", got.Credits)
	}
}

func TestClone(t *testing.T) {
	p := plan.New(plan.Semester{plan.ConcreteCourse{Code: "A"}, plan.ConcreteCourse{Code: "B"}})
	c := p.Clone()
	c.Semesters[0][0] = plan.ConcreteCourse{Code: "Z"}

	if p.Semesters[0][0].SlotCode() != "A" {
		t.Errorf("Clone shares semester storage with the original")
	}
}

func TestBlockCredits(t *testing.T) {
	p := plan.New(plan.Semester{
		plan.ConcreteCourse{Code: "X", Equivalence: &plan.EquivalenceRef{Code: "OFG", Credits: 4}},
		plan.EquivalencePlaceholder{Code: "OFG", Credits: 10},
		plan.EquivalencePlaceholder{Code: "TEO", Credits: 10},
		plan.ConcreteCourse{Code: "MAT1610"},
	})
	if got := p.BlockCredits(0, "OFG"); got != 14 {
		t.Errorf("BlockCredits(OFG) = %d, expected 14", got)
	}
	if got := p.BlockCredits(3, "OFG"); got != 0 {
		t.Errorf("BlockCredits on missing semester = %d, expected 0", got)
	}
}

func TestDecodeFormats(t *testing.T) {
	expected, err := plan.Parse(testutil.LoadFixtureFile(t, "plans/basic.json"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, file := range []string{"plans/basic.yaml", "plans/basic.toml"} {
		t.Run(file, func(t *testing.T) {
			p, err := plan.Decode(testutil.LoadFixtureFile(t, file), plan.FormatForPath(file))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if plan.Fingerprint(p) != plan.Fingerprint(expected) {
				t.Errorf("Decoded %s differs from basic.json", file)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p, err := plan.Parse(testutil.LoadFixtureFile(t, "plans/basic.json"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, format := range []plan.Format{plan.FormatJSON, plan.FormatYAML, plan.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := plan.Encode(p, format)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			back, err := plan.Decode(data, format)
			if err != nil {
				t.Fatalf("Decode failed: %v\n%s", err, data)
			}
			if plan.Fingerprint(back) != plan.Fingerprint(p) {
				t.Errorf("Round trip through %s changed the plan:\n%s", format, data)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := plan.Parse([]byte(`{"semesters": [[{"credits": 5}]]}`)); err == nil {
		t.Error("Expected error for slot without code")
	}
	if _, err := plan.Parse([]byte(`{"semesters": [[{"code": "OFG", "placeholder": true, "credits": -3}]]}`)); err == nil {
		t.Error("Expected error for negative credits")
	}
	if _, err := plan.Decode([]byte(`{}`), "xml"); !errors.Is(err, plan.ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestFingerprintIgnoresIdentity(t *testing.T) {
	a := plan.New(plan.Semester{plan.ConcreteCourse{Code: "A"}})
	b := plan.New(plan.Semester{plan.ConcreteCourse{Code: "A"}})
	c := plan.New(plan.Semester{plan.ConcreteCourse{Code: "B"}})

	if plan.Fingerprint(a) != plan.Fingerprint(b) {
		t.Error("Equal plans should share a fingerprint")
	}
	if plan.Fingerprint(a) == plan.Fingerprint(c) {
		t.Error("Different plans should not share a fingerprint")
	}
}
