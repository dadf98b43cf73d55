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

// Package postgres stores plans in a PostgreSQL table through pgx's
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/store"
)

// Config holds connection settings.
type Config struct {
	URL          string
	PingTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultConfig returns the settings used when only a URL is configured.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		PingTimeout:  2 * time.Second,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("database url is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("database ping timeout must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("max open connections must be >= 1")
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max idle connections must be between 0 and max open connections")
	}
	return nil
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping: %w", err), db.Close())
	}
	return db, nil
}

// DB is the subset of *sql.DB the store uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const schema = `CREATE TABLE IF NOT EXISTS student_plans (
	plan_id     TEXT PRIMARY KEY,
	plan        JSONB NOT NULL,
	fingerprint TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectPlan = `SELECT plan FROM student_plans WHERE plan_id = $1`
	upsertPlan = `INSERT INTO student_plans (plan_id, plan, fingerprint, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id) DO UPDATE
		SET plan = EXCLUDED.plan, fingerprint = EXCLUDED.fingerprint, updated_at = EXCLUDED.updated_at
		WHERE student_plans.fingerprint <> EXCLUDED.fingerprint`
	listPlans  = `SELECT plan_id FROM student_plans ORDER BY plan_id`
	deletePlan = `DELETE FROM student_plans WHERE plan_id = $1`
)

// PlanStore implements store.Store on the student_plans table.
type PlanStore struct {
	db  DB
	now func() time.Time
}

var _ store.Store = (*PlanStore)(nil)

// NewPlanStore wraps db. It returns nil for a nil db.
func NewPlanStore(db DB) *PlanStore {
	if db == nil {
		return nil
	}
	return &PlanStore{db: db, now: time.Now}
}

// EnsureSchema creates the table if it does not exist.
func (s *PlanStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create student_plans: %w", err)
	}
	return nil
}

var errNotInitialized = errors.New("plan store not initialized")

// Load implements store.Store.
func (s *PlanStore) Load(ctx context.Context, id string) (*plan.Plan, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.db.QueryRowContext(ctx, selectPlan, id).Scan(&raw); err != nil {
		return nil, handleNotFound(err, id)
	}
	p, err := plan.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return p, nil
}

// Save implements store.Store. Saving unchanged contents leaves the row
// and its timestamp alone.
func (s *PlanStore) Save(ctx context.Context, id string, p *plan.Plan) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if err := store.ValidateID(id); err != nil {
		return err
	}
	raw, err := plan.Encode(p, plan.FormatJSON)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertPlan, id, raw, plan.Fingerprint(p), s.now().UTC()); err != nil {
		return fmt.Errorf("upsert plan %s: %w", id, err)
	}
	return nil
}

// List implements store.Store.
func (s *PlanStore) List(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, listPlans)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return ids, nil
}

// Delete implements store.Store.
func (s *PlanStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if err := store.ValidateID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, deletePlan, id)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func handleNotFound(err error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return fmt.Errorf("load plan %s: %w", id, err)
}
