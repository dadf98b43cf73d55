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

// Package validate provides the validate command for malla.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/config"
	"bennypowers.dev/malla/internal/output"
	"bennypowers.dev/malla/session"
	"bennypowers.dev/malla/validation"
)

// Cmd is the validate cobra command. It sends plans to the validation
// service and reports their diagnostics.
var Cmd = &cobra.Command{
	Use:   "validate [plan-file...]",
	Short: "Validate plans against the curriculum rules",
	Long: `Validate plans with the external validation service.

For a single file, prints the diagnostic report. For multiple files (via
arguments or --glob), outputs NDJSON with one summary per line.`,
	Example: `  # Validate one plan
  malla validate plan.yaml

  # Validate every plan in a directory tree (NDJSON output)
  malla validate --glob "plans/**/*.{json,yaml,toml}" -j 8

  # Use a different validation service
  malla validate plan.json --validator-url "https://rules.example/check?plan={plan}"`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match plan files (e.g., \"plans/**/*.json\")")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any plan has error diagnostics")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	osfs := fs.NewOSFileSystem()
	logger := cfg.Logger(os.Stderr)

	files, err := collectFiles(args, cmd)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no plans to validate: provide file arguments or use --glob")
	}

	client, err := cfg.Validator(osfs, logger)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")

	if len(files) == 1 {
		return runSingle(cmd, osfs, client, files[0], failOnError)
	}
	return runBatch(cmd, osfs, client, files, jobs, failOnError)
}

// collectFiles merges args and --glob matches, deduplicated by absolute path.
func collectFiles(args []string, cmd *cobra.Command) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) error {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", path, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
		return nil
	}

	for _, arg := range args {
		if err := add(arg); err != nil {
			return nil, err
		}
	}
	if pattern, _ := cmd.Flags().GetString("glob"); pattern != "" {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

func runSingle(cmd *cobra.Command, osfs fs.FileSystem, v session.Validator, file string, failOnError bool) error {
	result := validateFile(cmd.Context(), osfs, v, file)
	if result.Error != "" {
		return fmt.Errorf("failed to validate %s: %s", file, result.Error)
	}
	var buf bytes.Buffer
	if err := output.Report(&buf, result.plan, result.digest); err != nil {
		return err
	}
	if err := output.Write(osfs, cmd.OutOrStdout(), buf.String()); err != nil {
		return err
	}
	if failOnError && result.Errors > 0 {
		return fmt.Errorf("%s has %d error(s)", file, result.Errors)
	}
	return nil
}

func runBatch(cmd *cobra.Command, osfs fs.FileSystem, v session.Validator, files []string, jobs int, failOnError bool) error {
	results := ValidateBatch(cmd.Context(), osfs, v, files, jobs)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	var failed, withErrors, total int
	for result := range results {
		total++
		if result.Error != "" {
			failed++
		}
		if result.Errors > 0 {
			withErrors++
		}
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result for %s: %v\n", result.File, err)
		}
	}

	if failed == total {
		return fmt.Errorf("all %d plans failed to validate", failed)
	}
	if failOnError && withErrors > 0 {
		return fmt.Errorf("%d of %d plans have errors", withErrors, total)
	}
	return nil
}

// summarize counts a digest for the NDJSON line.
func summarize(result *Result, v *validation.Digest) {
	result.Errors, result.Warnings = v.Counts()
	result.Outdated = v.IsOutdated
	for _, d := range v.PlanErrors {
		result.Kinds = append(result.Kinds, d.Kind)
	}
}
