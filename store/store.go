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

// Package store persists student plans.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/malla/plan"
)

// ErrNotFound is returned when no plan is stored under an id.
var ErrNotFound = errors.New("plan not found")

// ErrInvalidID is returned for ids that cannot name a stored plan.
var ErrInvalidID = errors.New("invalid plan id")

// Store loads and saves plans by id.
type Store interface {
	Load(ctx context.Context, id string) (*plan.Plan, error)
	Save(ctx context.Context, id string, p *plan.Plan) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// ValidateID rejects empty ids and ids that would escape a directory or
// bucket prefix.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case strings.ContainsAny(id, `/\`), id == ".", id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
