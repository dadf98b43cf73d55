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

// Package edit provides the edit command and its subcommands for malla.
package edit

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/config"
	"bennypowers.dev/malla/internal/output"
	"bennypowers.dev/malla/internal/planio"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/session"
	"bennypowers.dev/malla/store"
)

// Cmd is the edit parent command.
var Cmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a plan",
	Long: `Edit a plan file or a stored plan.

Positions are written SEMESTER:SLOT, both counted from 1. SLOT may be
"end" to place a course after the last one in the semester. The plan is
written back in place unless --output names another file.`,
}

var moveCmd = &cobra.Command{
	Use:   "move <plan-file> <from> <to>",
	Short: "Move a course to another position",
	Example: `  malla edit move plan.yaml 1:2 3:end
  malla edit move --id student-42 - 2:1 2:3`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := ParsePosition(args[1])
		if err != nil {
			return err
		}
		to, err := ParsePosition(args[2])
		if err != nil {
			return err
		}
		return apply(cmd, args[0], func(s *session.Session) error {
			if v := s.Move(from, to); v != nil {
				return fmt.Errorf("cannot move %s to semester %d: %s", v.Code, v.Semester+1, v.Type)
			}
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <plan-file> <position>",
	Short:   "Remove a course",
	Example: `  malla edit remove plan.yaml 2:1`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := ParsePosition(args[1])
		if err != nil {
			return err
		}
		return apply(cmd, args[0], func(s *session.Session) error {
			s.Remove(pos)
			return nil
		})
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <plan-file> <position> <slot>",
	Short: "Insert a course or equivalence placeholder",
	Long: `Insert a slot. The slot is written CODE for a course, BLOCK=CREDITS
for an equivalence placeholder, or CODE@BLOCK=CREDITS for a course chosen
for an equivalence block.`,
	Example: `  malla edit insert plan.yaml 2:end IIC1103
  malla edit insert plan.yaml 3:1 OFG=10`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := ParsePosition(args[1])
		if err != nil {
			return err
		}
		slot, err := ParseSlot(args[2])
		if err != nil {
			return err
		}
		return apply(cmd, args[0], func(s *session.Session) error {
			s.Insert(pos, slot)
			return nil
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <plan-file> <position> <code> <credits>",
	Short: "Choose a course for an equivalence slot",
	Long: `Fill the equivalence slot at position with a chosen course. Missing
credits stay behind in a placeholder; extra credits are taken from other
slots of the same block in the semester.`,
	Example: `  malla edit resolve plan.yaml 1:2 FIL2001 5`,
	Args:    cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := ParsePosition(args[1])
		if err != nil {
			return err
		}
		credits, err := strconv.Atoi(args[3])
		if err != nil || credits <= 0 {
			return fmt.Errorf("invalid credits %q: must be a positive number", args[3])
		}
		return apply(cmd, args[0], func(s *session.Session) error {
			slot, ok := s.Plan().At(pos)
			if !ok {
				return fmt.Errorf("no course at %s", FormatPosition(pos))
			}
			if _, ok := plan.Equivalence(slot); !ok {
				return fmt.Errorf("%s at %s is not an equivalence slot", slot.SlotCode(), FormatPosition(pos))
			}
			s.ResolveEquivalence(pos, args[2], credits)
			return nil
		})
	},
}

var unresolveCmd = &cobra.Command{
	Use:     "unresolve <plan-file> <position>",
	Short:   "Turn a chosen course back into its equivalence placeholder",
	Example: `  malla edit unresolve plan.yaml 2:2`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := ParsePosition(args[1])
		if err != nil {
			return err
		}
		return apply(cmd, args[0], func(s *session.Session) error {
			s.Unresolve(pos)
			return nil
		})
	},
}

func init() {
	Cmd.PersistentFlags().String("id", "", "Edit the plan stored under this id (pass - as plan-file)")
	Cmd.PersistentFlags().Bool("show", false, "Print the edited plan as a semester grid")

	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(insertCmd)
	Cmd.AddCommand(resolveCmd)
	Cmd.AddCommand(unresolveCmd)
}

// apply loads the plan, runs fn against an editing session and saves the
// result. Edits that leave the plan unchanged are reported and not saved.
func apply(cmd *cobra.Command, path string, fn func(*session.Session) error) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	osfs := fs.NewOSFileSystem()
	logger := cfg.Logger(os.Stderr)

	id, _ := cmd.Flags().GetString("id")
	if id != "" && path == "-" {
		path = ""
	}
	h, err := planio.Open(ctx, cfg, osfs, path, id)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	p, err := h.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	s := session.New(p, nil, session.WithGuard(cfg.Guard()), session.WithLogger(logger))
	if err := fn(s); err != nil {
		return err
	}
	edited := s.Plan()
	if edited == p {
		logger.Warn("edit left the plan unchanged", "plan", h.Name, "command", cmd.Name())
		return nil
	}

	if target := viper.GetString("output"); target != "" {
		if err := store.WriteFile(osfs, target, edited); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	} else if err := h.Save(ctx, edited); err != nil {
		return fmt.Errorf("failed to save %s: %w", h.Name, err)
	}
	logger.Debug("plan saved", "plan", h.Name, "revision", s.Revision())

	if show, _ := cmd.Flags().GetBool("show"); show {
		fmt.Fprintln(cmd.OutOrStdout(), output.Grid(edited, s.Digest()))
	}
	return nil
}
