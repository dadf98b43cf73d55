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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"bennypowers.dev/malla/plan"
)

func TestMain(m *testing.M) {
	// Build the binary before running tests
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "malla_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "malla_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "malla_test")
	cmd := exec.Command(binary, args...)
	// Keep user config and cached reports out of the tests.
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir(), "XDG_CACHE_HOME="+t.TempDir())

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

// copyPlan copies the basic fixture into a temp dir so edits can write it.
func copyPlan(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "plans", "basic.json"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write plan: %v", err)
	}
	return path
}

func readPlan(t *testing.T, path string) *plan.Plan {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read plan: %v", err)
	}
	p, err := plan.Parse(data)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v\n%s", err, data)
	}
	return p
}

func TestShowGrid(t *testing.T) {
	stdout, stderr, code := runCLI(t, "show", filepath.Join("testdata", "plans", "basic.yaml"))
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	for _, s := range []string{"Semester 1", "Semester 3", "MAT1620", "[OFG 10cr]", "FIL2001 (OFG 5cr)"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("Expected %q in grid, got:\n%s", s, stdout)
		}
	}
}

func TestShowReport(t *testing.T) {
	stdout, stderr, code := runCLI(t, "show", filepath.Join("testdata", "plans", "basic.json"),
		"--report", filepath.Join("testdata", "reports", "basic.json"), "--format", "report")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "4 error(s), 4 warning(s)") {
		t.Errorf("Expected report summary, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "semester 2, MAT1620") {
		t.Errorf("Expected the requisite error on MAT1620, got:\n%s", stdout)
	}
}

func TestShowJSON(t *testing.T) {
	stdout, stderr, code := runCLI(t, "show", filepath.Join("testdata", "plans", "basic.toml"),
		"--report", filepath.Join("testdata", "reports", "basic.json"), "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	var result struct {
		Plan       json.RawMessage `json:"plan"`
		Validation struct {
			Semesters  []json.RawMessage `json:"semesters"`
			IsOutdated bool              `json:"isOutdated"`
		} `json:"validation"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}
	if len(result.Validation.Semesters) != 3 || !result.Validation.IsOutdated {
		t.Errorf("Unexpected validation digest: %s", stdout)
	}
	if _, err := plan.Parse(result.Plan); err != nil {
		t.Errorf("Embedded plan does not parse: %v", err)
	}
}

func TestShowOutputFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "grid.txt")
	stdout, stderr, code := runCLI(t, "show", filepath.Join("testdata", "plans", "basic.json"), "--output", tmpFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("Expected no stdout when writing to file, got: %s", stdout)
	}
	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if !strings.Contains(string(content), "MAT1610") {
		t.Errorf("Expected grid in output file, got: %s", content)
	}
}

func TestShowMissingFile(t *testing.T) {
	_, stderr, code := runCLI(t, "show", "nonexistent.json")
	if code == 0 {
		t.Error("Expected non-zero exit code for missing file")
	}
	if !strings.Contains(stderr, "Error") {
		t.Errorf("Expected error message, got: %s", stderr)
	}
}

func TestEditMove(t *testing.T) {
	path := copyPlan(t)

	_, stderr, code := runCLI(t, "edit", "move", path, "2:1", "3:end")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	p := readPlan(t, path)
	slot, ok := p.At(plan.CoursePos{Semester: 2, Index: 1})
	if !ok || slot.SlotCode() != "MAT1620" {
		t.Errorf("Expected MAT1620 at the end of semester 3, got %v", slot)
	}
	if len(p.Semesters[1]) != 1 {
		t.Errorf("Expected one slot left in semester 2, got %d", len(p.Semesters[1]))
	}
}

func TestEditMoveDuplicate(t *testing.T) {
	path := copyPlan(t)
	before, _ := os.ReadFile(path)

	_, stderr, code := runCLI(t, "edit", "move", path, "1:1", "3:end")
	if code == 0 {
		t.Fatal("Expected non-zero exit code for a duplicate course")
	}
	if !strings.Contains(stderr, "duplicate course in semester") {
		t.Errorf("Expected duplicate error, got: %s", stderr)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("Rejected move must not rewrite the plan")
	}
}

func TestEditMoveCompletedSemester(t *testing.T) {
	path := copyPlan(t)

	_, stderr, code := runCLI(t, "edit", "move", path, "1:1", "2:end", "--completed-through", "1")
	if code == 0 {
		t.Fatal("Expected non-zero exit code for a completed semester")
	}
	if !strings.Contains(stderr, "semester already completed") {
		t.Errorf("Expected locked semester error, got: %s", stderr)
	}
}

func TestEditResolve(t *testing.T) {
	path := copyPlan(t)
	out := filepath.Join(t.TempDir(), "resolved.yaml")

	_, stderr, code := runCLI(t, "edit", "resolve", path, "1:2", "FIL2002", "4", "--output", out)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output plan: %v", err)
	}
	p, err := plan.Decode(data, plan.FormatYAML)
	if err != nil {
		t.Fatalf("Failed to decode output plan: %v", err)
	}
	if got := p.BlockCredits(0, "OFG"); got != 10 {
		t.Errorf("Expected OFG credits preserved at 10, got %d", got)
	}
	if slot, _ := p.At(plan.CoursePos{Semester: 0, Index: 1}); slot.SlotCode() != "FIL2002" {
		t.Errorf("Expected FIL2002 in the OFG slot, got %v", slot)
	}
}

func TestEditInsertAndRemove(t *testing.T) {
	path := copyPlan(t)

	if _, stderr, code := runCLI(t, "edit", "insert", path, "4:1", "IIC1103"); code != 0 {
		t.Fatalf("insert failed: %s", stderr)
	}
	if p := readPlan(t, path); p.Len() != 4 {
		t.Fatalf("Expected a fourth semester, got %d", p.Len())
	}

	if _, stderr, code := runCLI(t, "edit", "remove", path, "4:1"); code != 0 {
		t.Fatalf("remove failed: %s", stderr)
	}
	if p := readPlan(t, path); p.Len() != 3 {
		t.Errorf("Expected the empty semester trimmed, got %d", p.Len())
	}
}

func TestEditBadPosition(t *testing.T) {
	_, stderr, code := runCLI(t, "edit", "remove", copyPlan(t), "0:1")
	if code == 0 {
		t.Error("Expected non-zero exit code for a bad position")
	}
	if !strings.Contains(stderr, "invalid position") {
		t.Errorf("Expected position error, got: %s", stderr)
	}
}

func TestValidateNoPlans(t *testing.T) {
	_, stderr, code := runCLI(t, "validate")
	if code == 0 {
		t.Error("Expected non-zero exit code without plans")
	}
	if !strings.Contains(stderr, "no plans to validate") {
		t.Errorf("Expected usage error, got: %s", stderr)
	}
}

func TestHelp(t *testing.T) {
	stdout, _, code := runCLI(t, "--help")
	if code != 0 {
		t.Fatalf("Expected exit code 0 for help, got %d", code)
	}

	expectedStrings := []string{
		"malla",
		"show",
		"validate",
		"edit",
		"watch",
		"--validator-url",
		"--output",
	}

	for _, s := range expectedStrings {
		if !strings.Contains(stdout, s) {
			t.Errorf("Expected %q in help output", s)
		}
	}
}

func TestEditHelp(t *testing.T) {
	stdout, _, code := runCLI(t, "edit", "--help")
	if code != 0 {
		t.Fatalf("Expected exit code 0 for help, got %d", code)
	}
	for _, s := range []string{"move", "remove", "insert", "resolve", "unresolve", "SEMESTER:SLOT"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("Expected %q in edit help output", s)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := runCLI(t, "unknown")
	if code == 0 {
		t.Error("Expected non-zero exit code for unknown command")
	}

	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("Expected 'unknown command' error, got: %s", stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.HasPrefix(stdout, "malla ") {
		t.Errorf("Unexpected version output: %s", stdout)
	}
}
