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

// Package session keeps the plan a student is editing together with the
// diagnostics produced for it. Edits swap the plan and cancel any
// validation still running for the previous one; results that arrive for a
// plan that is no longer current are discarded.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"bennypowers.dev/malla/digest"
	"bennypowers.dev/malla/mutate"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/validation"
)

// ErrStale is returned by Revalidate when the plan changed while its
// diagnostics were being computed.
var ErrStale = errors.New("plan changed during validation")

// Validator produces the diagnostics for one plan snapshot. Implementations
// must honor ctx cancellation.
type Validator interface {
	Validate(ctx context.Context, p *plan.Plan) (*validation.Report, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, p *plan.Plan) (*validation.Report, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, p *plan.Plan) (*validation.Report, error) {
	return f(ctx, p)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGuard sets the context moves are validated against.
func WithGuard(g mutate.Guard) Option {
	return func(s *Session) {
		s.guard = g
	}
}

// Session is safe for concurrent use.
type Session struct {
	validator Validator
	guard     mutate.Guard
	logger    *slog.Logger
	digests   *validation.Cache
	flight    singleflight.Group

	mu       sync.Mutex
	plan     *plan.Plan
	revision string
	report   *validation.Report
	// reportFor is the plan the report was produced for. The report is only
	// combined with the current plan when the two are the same pointer.
	reportFor *plan.Plan
	cancel    context.CancelFunc
}

// New starts a session editing p.
func New(p *plan.Plan, v Validator, opts ...Option) *Session {
	if p == nil {
		p = &plan.Plan{}
	}
	s := &Session{
		validator: v,
		guard:     mutate.NoGuard,
		logger:    slog.New(slog.DiscardHandler),
		digests:   validation.NewCache(nil),
		plan:      p,
		revision:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan returns the current plan.
func (s *Session) Plan() *plan.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Revision identifies the current plan. It changes on every edit that
// produces a new plan.
func (s *Session) Revision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Report returns the diagnostics for the current plan, or nil if none have
// arrived since the last edit.
func (s *Session) Report() *validation.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reportFor != s.plan {
		return nil
	}
	return s.report
}

// Digest returns the validation digest of the current plan. Until
// diagnostics for this exact plan arrive, the digest carries none.
func (s *Session) Digest() *validation.Digest {
	s.mu.Lock()
	p, r := s.plan, s.report
	if s.reportFor != p {
		r = nil
	}
	s.mu.Unlock()
	return s.digests.Get(p, r)
}

// PlanDigest returns the identity index of the current plan.
func (s *Session) PlanDigest() *digest.PlanDigest {
	return s.digests.PlanDigest(s.Plan())
}

// ValidateMove checks a move against the plan and the session guard without
// applying it.
func (s *Session) ValidateMove(from, to plan.CoursePos) *mutate.Violation {
	return s.guard.ValidateMove(s.Plan(), from, to)
}

// Move applies a validated move. A violation leaves the plan untouched.
func (s *Session) Move(from, to plan.CoursePos) *mutate.Violation {
	var violation *mutate.Violation
	s.edit("move", func(p *plan.Plan) *plan.Plan {
		next, v := mutate.TryMove(p, s.guard, from, to)
		violation = v
		return next
	})
	if violation != nil {
		s.logger.Debug("move rejected", "code", violation.Code, "reason", violation.Type.String(), "semester", violation.Semester)
	}
	return violation
}

// Remove deletes the slot at pos.
func (s *Session) Remove(pos plan.CoursePos) {
	s.edit("remove", func(p *plan.Plan) *plan.Plan {
		return mutate.Remove(p, pos)
	})
}

// Insert places slot at pos.
func (s *Session) Insert(pos plan.CoursePos, slot plan.Slot) {
	s.edit("insert", func(p *plan.Plan) *plan.Plan {
		return mutate.Insert(p, pos, slot)
	})
}

// ResolveEquivalence fills the equivalence slot at pos with a chosen course.
func (s *Session) ResolveEquivalence(pos plan.CoursePos, code string, credits int) {
	s.edit("resolve", func(p *plan.Plan) *plan.Plan {
		return mutate.ResolveEquivalence(p, pos, code, credits)
	})
}

// Unresolve turns the chosen course at pos back into a placeholder.
func (s *Session) Unresolve(pos plan.CoursePos) {
	s.edit("unresolve", func(p *plan.Plan) *plan.Plan {
		return mutate.Unresolve(p, pos)
	})
}

// Replace swaps in a plan loaded from elsewhere.
func (s *Session) Replace(p *plan.Plan) {
	if p == nil {
		p = &plan.Plan{}
	}
	s.edit("replace", func(*plan.Plan) *plan.Plan {
		return p
	})
}

// edit applies fn to the current plan. When fn returns a different plan the
// revision advances, in-flight validation is canceled and the report is
// dropped.
func (s *Session) edit(op string, fn func(*plan.Plan) *plan.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.plan)
	if next == s.plan {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.plan = next
	s.revision = uuid.NewString()
	s.report = nil
	s.reportFor = nil
	s.logger.Debug("plan edited", "op", op, "revision", s.revision, "semesters", next.Len())
}

// Revalidate computes diagnostics for the current plan and returns its
// validation digest. Concurrent calls for the same revision share one
// validator call, which runs detached from any one caller and is canceled
// only by an edit; each caller stops waiting when its own ctx is done. If
// the plan is edited before the validator returns, the result is discarded
// and ErrStale is returned.
func (s *Session) Revalidate(ctx context.Context) (*validation.Digest, error) {
	if s.validator == nil {
		return s.Digest(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot, revision := s.plan, s.revision
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(revision, func() (any, error) {
		vctx, cancel := context.WithCancel(detached)
		defer cancel()

		s.mu.Lock()
		if s.plan != snapshot {
			s.mu.Unlock()
			return nil, ErrStale
		}
		s.cancel = cancel
		s.mu.Unlock()

		s.logger.Debug("validating plan", "revision", revision)
		report, err := s.validator.Validate(vctx, snapshot)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.plan != snapshot {
			s.logger.Debug("discarding stale diagnostics", "revision", revision)
			return nil, ErrStale
		}
		s.cancel = nil
		if err != nil {
			return nil, fmt.Errorf("validating plan: %w", err)
		}
		s.report = report
		s.reportFor = snapshot
		return report, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("shared validation result", "revision", revision)
		}
		return s.digests.Get(snapshot, res.Val.(*validation.Report)), nil
	}
}
