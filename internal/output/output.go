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

// Package output renders plans and validation digests for the CLI.
package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/viper"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/validation"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	headerColor  = color.New(color.Bold)

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Write sends text to the file named by viper's "output" key, or to w.
func Write(osfs fs.FileSystem, w io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, []byte(text), 0644)
	}
	_, err := io.WriteString(w, text)
	return err
}

// SlotLabel is the one-line label of a slot.
func SlotLabel(s plan.Slot) string {
	switch v := s.(type) {
	case plan.EquivalencePlaceholder:
		return fmt.Sprintf("[%s %dcr]", v.Code, v.Credits)
	case plan.ConcreteCourse:
		if v.Equivalence != nil {
			return fmt.Sprintf("%s (%s %dcr)", v.Code, v.Equivalence.Code, v.Equivalence.Credits)
		}
		return v.Code
	default:
		return "?"
	}
}

// Grid renders the plan as one column per semester. Courses with errors are
// marked with ✗ and those with only warnings with !. v may be nil.
func Grid(p *plan.Plan, v *validation.Digest) string {
	if p.Len() == 0 {
		return "(empty plan)"
	}
	columns := make([]string, 0, p.Len())
	for s, sem := range p.Semesters {
		lines := []string{titleStyle.Render(fmt.Sprintf("Semester %d", s+1))}
		for i, slot := range sem {
			label := SlotLabel(slot)
			if v != nil {
				if c, ok := v.Course(plan.CoursePos{Semester: s, Index: i}); ok {
					switch {
					case len(c.Errors) > 0:
						label = errorStyle.Render("✗ " + label)
					case len(c.Warnings) > 0:
						label = warnStyle.Render("! " + label)
					}
					if c.Superblock != "" {
						label += " · " + c.Superblock
					}
				}
			}
			lines = append(lines, label)
		}
		if v != nil && s < len(v.Semesters) {
			sv := v.Semesters[s]
			if n := len(sv.Errors); n > 0 {
				lines = append(lines, errorStyle.Render(fmt.Sprintf("%d error(s)", n)))
			}
			if n := len(sv.Warnings); n > 0 {
				lines = append(lines, warnStyle.Render(fmt.Sprintf("%d warning(s)", n)))
			}
		}
		columns = append(columns, cellStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// Report writes one line per diagnostic placement, plan-wide first, then by
// semester and course.
func Report(w io.Writer, p *plan.Plan, v *validation.Digest) error {
	var b strings.Builder
	if v.IsOutdated {
		headerColor.Fprintln(&b, "Plan is outdated: past semesters no longer match the student's record.")
	}
	writeAll(&b, "plan", v.PlanErrors, v.PlanWarnings)
	for s, sem := range v.Semesters {
		writeAll(&b, fmt.Sprintf("semester %d", s+1), sem.Errors, sem.Warnings)
		for i, c := range sem.Courses {
			slot, ok := p.At(plan.CoursePos{Semester: s, Index: i})
			if !ok {
				continue
			}
			writeAll(&b, fmt.Sprintf("semester %d, %s", s+1, slot.SlotCode()), c.Errors, c.Warnings)
		}
	}
	errs, warns := v.Counts()
	fmt.Fprintf(&b, "%d error(s), %d warning(s)\n", errs, warns)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeAll(b *strings.Builder, where string, errs, warns []*validation.Diagnostic) {
	for _, d := range errs {
		writeOne(b, where, d)
	}
	for _, d := range warns {
		writeOne(b, where, d)
	}
}

func writeOne(b *strings.Builder, where string, d *validation.Diagnostic) {
	sev := warningColor.Sprint(d.Severity.String())
	if d.IsError() {
		sev = errorColor.Sprint(d.Severity.String())
	}
	kind := d.Kind
	if kind == "" {
		kind = "unknown"
	}
	fmt.Fprintf(b, "%s %s: %s", sev, where, kind)
	if details := Details(d); details != "" {
		b.WriteString(" " + dimColor.Sprint(details))
	}
	b.WriteByte('\n')
}

// Details renders a diagnostic payload as sorted key=value pairs.
func Details(d *validation.Diagnostic) string {
	if len(d.Payload) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(d.Payload))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + string(d.Payload[k])
	}
	return strings.Join(parts, " ")
}
