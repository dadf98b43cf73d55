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

package validate

import (
	"context"
	"errors"
	"slices"
	"testing"

	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/session"
	"bennypowers.dev/malla/testutil"
	"bennypowers.dev/malla/validation"
)

func TestValidateBatch(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "plans", "/plans")
	mfs.AddFile("/plans/broken.json", "{not json", 0644)
	report, err := validation.ParseReport(testutil.LoadFixtureFile(t, "reports/basic.json"))
	if err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	v := session.ValidatorFunc(func(context.Context, *plan.Plan) (*validation.Report, error) {
		return report, nil
	})

	files := []string{"/plans/basic.json", "/plans/basic.yaml", "/plans/basic.toml", "/plans/broken.json", "/plans/missing.json"}
	var results []Result
	for result := range ValidateBatch(context.Background(), mfs, v, files, 2) {
		results = append(results, result)
	}

	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}
	slices.SortFunc(results, func(a, b Result) int {
		return slices.Index(files, a.File) - slices.Index(files, b.File)
	})

	for _, r := range results[:3] {
		if r.Error != "" {
			t.Errorf("%s: unexpected error %s", r.File, r.Error)
		}
		if r.Errors != 4 || r.Warnings != 4 {
			t.Errorf("%s: expected 4 errors and 4 warnings, got %d and %d", r.File, r.Errors, r.Warnings)
		}
		if !r.Outdated {
			t.Errorf("%s: expected outdated", r.File)
		}
	}
	for _, r := range results[3:] {
		if r.Error == "" {
			t.Errorf("%s: expected an error", r.File)
		}
	}
}

func TestValidateBatchValidatorError(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "plans", "/plans")
	v := session.ValidatorFunc(func(context.Context, *plan.Plan) (*validation.Report, error) {
		return nil, errors.New("service unavailable")
	})

	for result := range ValidateBatch(context.Background(), mfs, v, []string{"/plans/basic.json"}, 0) {
		if result.Error != "service unavailable" {
			t.Errorf("Expected validator error, got %q", result.Error)
		}
	}
}
