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

// Package show provides the show command for malla.
package show

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/malla/digest"
	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/config"
	"bennypowers.dev/malla/internal/output"
	"bennypowers.dev/malla/internal/planio"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/validation"
)

// Cmd is the show command. It renders a plan, optionally together with the
// diagnostics of a validation report.
var Cmd = &cobra.Command{
	Use:   "show [plan-file]",
	Short: "Show a plan and its diagnostics",
	Long: `Show a plan as a semester grid, a diagnostic report, or JSON digests.

Diagnostics come from a saved report (--report) or from the validation
service (--validate). Without either, only the plan is shown.`,
	Example: `  # Semester grid
  malla show plan.yaml

  # Diagnostics from the validation service
  malla show plan.yaml --validate --format report

  # Plan and validation digests as JSON
  malla show --id student-42 --report report.json --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "grid", "Output format (grid, report, json)")
	Cmd.Flags().String("id", "", "Load the plan from the configured store")
	Cmd.Flags().String("report", "", "Validation report JSON file")
	Cmd.Flags().Bool("validate", false, "Fetch diagnostics from the validation service")
}

// Digests is the JSON form of the show command.
type Digests struct {
	Plan       *plan.Plan         `json:"plan"`
	Digest     *digest.PlanDigest `json:"digest"`
	Validation *validation.Digest `json:"validation"`
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "grid", "report", "json":
	default:
		return fmt.Errorf("invalid format %q: must be one of grid, report, json", format)
	}

	osfs := fs.NewOSFileSystem()
	ctx := cmd.Context()
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	id, _ := cmd.Flags().GetString("id")
	h, err := planio.Open(ctx, cfg, osfs, path, id)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	p, err := h.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	var report *validation.Report
	reportPath, _ := cmd.Flags().GetString("report")
	validate, _ := cmd.Flags().GetBool("validate")
	switch {
	case reportPath != "":
		data, err := osfs.ReadFile(reportPath)
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}
		if report, err = validation.ParseReport(data); err != nil {
			return fmt.Errorf("failed to parse report %s: %w", reportPath, err)
		}
	case validate:
		client, err := cfg.Validator(osfs, cfg.Logger(os.Stderr))
		if err != nil {
			return err
		}
		if report, err = client.Validate(ctx, p); err != nil {
			return fmt.Errorf("failed to validate %s: %w", h.Name, err)
		}
	}

	cache := validation.NewCache(nil)
	v := cache.Get(p, report)

	out := cmd.OutOrStdout()
	switch format {
	case "report":
		var buf bytes.Buffer
		if err := output.Report(&buf, p, v); err != nil {
			return err
		}
		return output.Write(osfs, out, buf.String())
	case "json":
		data, err := json.MarshalIndent(Digests{Plan: p, Digest: cache.PlanDigest(p), Validation: v}, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling digests: %w", err)
		}
		return output.Write(osfs, out, string(data))
	default:
		return output.Write(osfs, out, output.Grid(p, v))
	}
}
