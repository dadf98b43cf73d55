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

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	mfs "bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/plan"
)

var extensions = map[plan.Format]string{
	plan.FormatJSON: ".json",
	plan.FormatYAML: ".yaml",
	plan.FormatTOML: ".toml",
}

// FileStore keeps one file per plan in a directory. Plans are written in
// the store's format and read back from whichever supported extension
// exists.
type FileStore struct {
	fs     mfs.FileSystem
	dir    string
	format plan.Format
}

// NewFileStore stores plans under dir. An empty format means JSON.
func NewFileStore(fsys mfs.FileSystem, dir string, format plan.Format) (*FileStore, error) {
	if format == "" {
		format = plan.FormatJSON
	}
	if _, ok := extensions[format]; !ok {
		return nil, fmt.Errorf("%w: %s", plan.ErrUnknownFormat, format)
	}
	return &FileStore{fs: fsys, dir: dir, format: format}, nil
}

// Load reads the plan stored under id.
func (s *FileStore) Load(_ context.Context, id string) (*plan.Plan, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	for _, format := range s.formats() {
		p, err := ReadFile(s.fs, filepath.Join(s.dir, id+extensions[format]))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return p, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save writes p under id, replacing any previous version.
func (s *FileStore) Save(_ context.Context, id string, p *plan.Plan) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return WriteFile(s.fs, filepath.Join(s.dir, id+extensions[s.format]), p)
}

// ReadFile decodes the plan file at path, choosing the format by extension.
func ReadFile(fsys mfs.FileSystem, path string) (*plan.Plan, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := plan.Decode(data, plan.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return p, nil
}

// WriteFile encodes p in the format of path's extension and replaces path
// through a temporary file in the same directory.
func WriteFile(fsys mfs.FileSystem, path string, p *plan.Plan) error {
	data, err := plan.Encode(p, plan.FormatForPath(path))
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := fsys.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("replacing %s: %w", path, err), fsys.Remove(tmp))
	}
	return nil
}

// List returns the ids of all stored plans, sorted.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		if !slices.Contains([]string{".json", ".yaml", ".toml"}, strings.ToLower(ext)) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes every file stored under id.
func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	removed := false
	for _, format := range s.formats() {
		err := s.fs.Remove(filepath.Join(s.dir, id+extensions[format]))
		if err == nil {
			removed = true
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting plan %s: %w", id, err)
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// formats lists the store's own format first.
func (s *FileStore) formats() []plan.Format {
	out := []plan.Format{s.format}
	for _, f := range []plan.Format{plan.FormatJSON, plan.FormatYAML, plan.FormatTOML} {
		if f != s.format {
			out = append(out, f)
		}
	}
	return out
}
