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

// Package validation maps diagnostics produced by the external rule engine
// onto the semesters and course occurrences of a plan.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"sort"

	"bennypowers.dev/malla/plan"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns a lowercase label for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic kinds the core itself interprets. Every other kind is passed
// through untouched for the presentation layer.
const (
	KindOutdated                = "outdated"
	KindOutdatedCurrentSemester = "outdated-current-semester"
)

// Target is what a diagnostic is attached to: a whole semester, or one
// course occurrence when Class is set.
type Target struct {
	Semester int
	Class    *plan.ClassID
}

// SemesterTarget attaches a diagnostic to semester n.
func SemesterTarget(n int) Target {
	return Target{Semester: n}
}

// ClassTarget attaches a diagnostic to a course occurrence.
func ClassTarget(id plan.ClassID) Target {
	return Target{Class: &id}
}

// IsClass reports whether the target names a course occurrence.
func (t Target) IsClass() bool {
	return t.Class != nil
}

// MarshalJSON encodes semesters as bare numbers and classes as objects.
func (t Target) MarshalJSON() ([]byte, error) {
	if t.Class != nil {
		return json.Marshal(t.Class)
	}
	return json.Marshal(t.Semester)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Target) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var id plan.ClassID
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		if id.Code == "" {
			return fmt.Errorf("class target without code")
		}
		*t = ClassTarget(id)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("target must be a semester number or a class id: %w", err)
	}
	*t = SemesterTarget(n)
	return nil
}

// Diagnostic is one finding of the rule engine. Kind-specific fields are
// kept verbatim in Payload.
type Diagnostic struct {
	Kind         string
	Severity     Severity
	AssociatedTo []Target
	Payload      map[string]json.RawMessage

	// targeted records a non-empty associatedTo on the wire, so a diagnostic
	// whose targets were all malformed is not mistaken for a plan-wide one.
	targeted bool
}

// IsError reports whether the diagnostic is an error rather than a warning.
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// IsPlanWide reports whether the diagnostic applies to the plan as a whole
// rather than to semesters or courses.
func (d *Diagnostic) IsPlanWide() bool {
	return len(d.AssociatedTo) == 0 && !d.targeted
}

// IsOutdated reports whether the diagnostic flags the plan as outdated.
func (d *Diagnostic) IsOutdated() bool {
	return d.Kind == KindOutdated || d.Kind == KindOutdatedCurrentSemester
}

// PayloadString returns a string payload field, or "" if it is absent or
// not a string.
func (d *Diagnostic) PayloadString(key string) string {
	raw, ok := d.Payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// UnmarshalJSON decodes a diagnostic leniently: a missing isError means
// error, malformed targets are skipped, and anything unrecognized is kept
// in Payload.
func (d *Diagnostic) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*d = Diagnostic{Severity: SeverityError}

	if raw, ok := fields["kind"]; ok {
		_ = json.Unmarshal(raw, &d.Kind)
		delete(fields, "kind")
	}
	if raw, ok := fields["isError"]; ok {
		var isError bool
		if err := json.Unmarshal(raw, &isError); err == nil && !isError {
			d.Severity = SeverityWarning
		}
		delete(fields, "isError")
	}
	if raw, ok := fields["associatedTo"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err == nil {
			d.targeted = len(entries) > 0
			for _, entry := range entries {
				var target Target
				if err := target.UnmarshalJSON(entry); err == nil {
					d.AssociatedTo = append(d.AssociatedTo, target)
				}
			}
		}
		delete(fields, "associatedTo")
	}
	if len(fields) > 0 {
		d.Payload = fields
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Payload)+3)
	for k, v := range d.Payload {
		out[k] = v
	}
	out["kind"] = d.Kind
	out["isError"] = d.IsError()
	if len(d.AssociatedTo) > 0 {
		out["associatedTo"] = d.AssociatedTo
	}
	return json.Marshal(out)
}

// Report is the rule engine's answer for one plan: the flat diagnostic list
// and the superblock each course occurrence was assigned to. The *Report
// pointer is the identity the digest cache keys on.
type Report struct {
	Diagnostics       []Diagnostic        `json:"diagnostics"`
	CourseSuperblocks map[string][]string `json:"course_superblocks,omitempty"`
}

// ParseReport decodes a JSON report. Individual diagnostics that cannot be
// decoded are kept as plan-wide errors with an empty kind.
func ParseReport(data []byte) (*Report, error) {
	var wire struct {
		Diagnostics       []json.RawMessage   `json:"diagnostics"`
		CourseSuperblocks map[string][]string `json:"course_superblocks"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	r := &Report{
		Diagnostics:       make([]Diagnostic, 0, len(wire.Diagnostics)),
		CourseSuperblocks: wire.CourseSuperblocks,
	}
	for _, raw := range wire.Diagnostics {
		var d Diagnostic
		if err := d.UnmarshalJSON(raw); err != nil {
			d = Diagnostic{Severity: SeverityError, Payload: map[string]json.RawMessage{"raw": raw}}
		}
		r.Diagnostics = append(r.Diagnostics, d)
	}
	return r, nil
}

// Superblock looks up the superblock assigned to a course occurrence.
func (r *Report) Superblock(id plan.ClassID) string {
	if r == nil {
		return ""
	}
	return superblock(r.CourseSuperblocks, id)
}

// Clone returns a copy of r whose diagnostic slice may be reordered freely.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	return &Report{
		Diagnostics:       append([]Diagnostic(nil), r.Diagnostics...),
		CourseSuperblocks: maps.Clone(r.CourseSuperblocks),
	}
}

// SortBySeverity orders diagnostics errors first, keeping the relative
// order within each severity.
func SortBySeverity(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Severity < diags[j].Severity
	})
}
