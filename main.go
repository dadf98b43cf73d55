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

// Command malla plans, edits and validates course semesters.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/malla/cmd/edit"
	"bennypowers.dev/malla/cmd/show"
	"bennypowers.dev/malla/cmd/validate"
	"bennypowers.dev/malla/cmd/version"
	"bennypowers.dev/malla/cmd/watch"
	"bennypowers.dev/malla/internal/config"
)

var (
	cfgFile        string
	cpuprofile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "malla",
		Short: "Plan and validate course semesters",
		Long: `malla edits semester-by-semester course plans and attaches the
diagnostics of a curriculum validation service to them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(viper.GetViper(), cfgFile); err != nil {
				return err
			}
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: .malla.{yaml,toml,json} in . or $HOME)")
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.String("store", "", "Plan store backend (file, postgres, s3)")
	flags.String("store-dir", "", "Directory of the file store")
	flags.String("plan-format", "", "Plan file format for the file store (json, yaml, toml)")
	flags.String("database-url", "", "PostgreSQL connection URL for the postgres store")
	flags.String("validator-url", "", "Validation service URL template; {plan} is replaced by the encoded plan")
	flags.String("cache-dir", "", "Directory for cached validation reports")
	flags.Int("completed-through", 0, "Number of semesters already taken; their courses cannot move")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	for key, name := range map[string]string{
		"output":            "output",
		"store":             "store",
		"store-dir":         "store-dir",
		"format":            "plan-format",
		"database-url":      "database-url",
		"validator-url":     "validator-url",
		"cache-dir":         "cache-dir",
		"completed-through": "completed-through",
		"verbose":           "verbose",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(show.Cmd)
	rootCmd.AddCommand(validate.Cmd)
	rootCmd.AddCommand(edit.Cmd)
	rootCmd.AddCommand(watch.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
