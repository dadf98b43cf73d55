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

// Package planio resolves the plan a CLI command reads and writes: a plan
// file given as an argument, or a plan id in the configured store.
package planio

import (
	"context"
	"errors"
	"fmt"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/internal/config"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/store"
)

// Handle reads and writes one plan.
type Handle struct {
	Name  string
	fs    fs.FileSystem
	path  string
	id    string
	store store.Store
	close func() error
}

// Open returns a handle for the plan file at path, or, when id is set, for
// the plan stored under id in the configured backend.
func Open(ctx context.Context, cfg config.Config, fsys fs.FileSystem, path, id string) (*Handle, error) {
	switch {
	case path != "" && id != "":
		return nil, errors.New("give either a plan file or --id, not both")
	case id != "":
		s, closeStore, err := cfg.OpenStore(ctx, fsys)
		if err != nil {
			return nil, err
		}
		return &Handle{Name: cfg.Store + ":" + id, id: id, store: s, close: closeStore}, nil
	case path != "":
		return &Handle{Name: path, fs: fsys, path: path, close: func() error { return nil }}, nil
	default:
		return nil, errors.New("no plan: give a plan file or --id")
	}
}

// Load reads the plan.
func (h *Handle) Load(ctx context.Context) (*plan.Plan, error) {
	if h.store != nil {
		return h.store.Load(ctx, h.id)
	}
	return store.ReadFile(h.fs, h.path)
}

// Save writes p back where it was read from.
func (h *Handle) Save(ctx context.Context, p *plan.Plan) error {
	if h.store != nil {
		return h.store.Save(ctx, h.id, p)
	}
	return store.WriteFile(h.fs, h.path, p)
}

// Path is the plan file, or "" for stored plans.
func (h *Handle) Path() string {
	return h.path
}

// Close releases the store connection, if any.
func (h *Handle) Close() error {
	if err := h.close(); err != nil {
		return fmt.Errorf("closing %s: %w", h.Name, err)
	}
	return nil
}
