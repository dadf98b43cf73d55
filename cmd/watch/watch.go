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

// Package watch provides the watch command for malla.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/config"
	"bennypowers.dev/malla/session"
)

// Cmd is the watch command. It revalidates a plan file every time it
// changes on disk.
var Cmd = &cobra.Command{
	Use:   "watch <plan-file>",
	Short: "Revalidate a plan whenever it changes",
	Long: `Watch a plan file and print its diagnostic report after every change.

A change that arrives while the previous version is still being validated
cancels that validation; only reports for the latest version are printed.`,
	Example: `  malla watch plan.yaml
  malla watch plan.toml --debounce 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().Duration("debounce", 150*time.Millisecond, "Wait this long after a change before reloading")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	osfs := fs.NewOSFileSystem()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid file path %q: %w", args[0], err)
	}
	client, err := cfg.Validator(osfs, logger)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		fs:      osfs,
		path:    path,
		session: session.New(nil, client, session.WithGuard(cfg.Guard()), session.WithLogger(logger)),
		logger:  logger,
		out:     cmd.OutOrStdout(),
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if err := w.Reload(ctx, g); err != nil {
		return err
	}
	logger.Info("watching plan", "path", path)

	g.Go(func() error {
		var timer *time.Timer
		changed := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-fw.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("plan changed", "op", event.Op.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					select {
					case changed <- struct{}{}:
					default:
					}
				})
			case <-changed:
				if err := w.Reload(ctx, g); err != nil {
					logger.Warn("reload failed", "path", path, "error", err)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return nil
				}
				logger.Error("file watcher error", "error", err)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
