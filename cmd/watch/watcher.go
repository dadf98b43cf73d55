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

package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/output"
	"bennypowers.dev/malla/session"
	"bennypowers.dev/malla/store"
)

// Watcher reloads a plan file into a session and prints the report of
// each version that finishes validating.
type Watcher struct {
	fs      fs.FileSystem
	path    string
	session *session.Session
	logger  *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

// Reload reads the plan file, swaps it into the session and starts its
// validation on g. Any validation still running for the previous version
// is canceled by the swap.
func (w *Watcher) Reload(ctx context.Context, g *errgroup.Group) error {
	p, err := store.ReadFile(w.fs, w.path)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	w.session.Replace(p)
	revision := w.session.Revision()

	g.Go(func() error {
		d, err := w.session.Revalidate(ctx)
		switch {
		case errors.Is(err, session.ErrStale):
			w.logger.Debug("superseded before validation finished", "revision", revision)
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			w.logger.Error("validation failed", "path", w.path, "error", err)
			return nil
		}
		if w.session.Plan() != p {
			// A newer version was swapped in; its own reload prints it.
			return nil
		}

		var buf bytes.Buffer
		if err := output.Report(&buf, p, d); err != nil {
			return err
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		_, err = io.WriteString(w.out, buf.String()+"\n")
		return err
	})
	return nil
}
