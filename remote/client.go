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

package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/validation"
)

// PlanVariable is replaced in a URL template with the plan, encoded as
// base64url of its compact JSON.
const PlanVariable = "{plan}"

// DefaultTemplate points at a validation service on the local machine.
const DefaultTemplate = "http://localhost:8080/validate?plan={plan}"

// ErrInvalidTemplate is returned for URL templates without {plan}.
var ErrInvalidTemplate = errors.New("validator URL template must contain {plan}")

// Client fetches validation reports for plans. It implements
// session.Validator.
type Client struct {
	template string
	fetcher  Fetcher
	cache    *ReportCache
	disk     *DiskCache
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// WithCache serves repeated plan contents from an in-memory cache.
func WithCache(cache *ReportCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithDiskCache keeps report bodies across runs.
func WithDiskCache(disk *DiskCache) Option {
	return func(c *Client) { c.disk = disk }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service at template.
func NewClient(template string, opts ...Option) (*Client, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if !strings.Contains(template, PlanVariable) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplate, template)
	}
	c := &Client{
		template: template,
		fetcher:  NewHTTPFetcher(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL expands the template for p.
func (c *Client) URL(p *plan.Plan) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding plan: %w", err)
	}
	return strings.ReplaceAll(c.template, PlanVariable, base64.RawURLEncoding.EncodeToString(data)), nil
}

// Validate returns the report for p. Plans with identical contents are
// served from the caches when configured. A load shared through the cache
// runs detached from any one caller, and each caller stops waiting when its
// own ctx is done.
func (c *Client) Validate(ctx context.Context, p *plan.Plan) (*validation.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fingerprint := plan.Fingerprint(p)
	if c.cache == nil {
		return c.load(ctx, p, fingerprint)
	}

	type result struct {
		report *validation.Report
		err    error
	}
	detached := context.WithoutCancel(ctx)
	done := make(chan result, 1)
	go func() {
		report, err := c.cache.GetOrLoad(fingerprint, func() (*validation.Report, error) {
			return c.load(detached, p, fingerprint)
		})
		done <- result{report, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.report, res.err
	}
}

func (c *Client) load(ctx context.Context, p *plan.Plan, fingerprint string) (*validation.Report, error) {
	if body, ok := c.disk.Get(fingerprint); ok {
		if report, err := validation.ParseReport(body); err == nil {
			c.logger.Debug("report from disk cache", "fingerprint", fingerprint)
			return report, nil
		}
		if err := c.disk.Drop(fingerprint); err != nil {
			c.logger.Warn("dropping corrupt cache entry", "fingerprint", fingerprint, "error", err)
		}
	}

	url, err := c.URL(p)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetching report", "fingerprint", fingerprint, "bytes", len(url))
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	report, err := validation.ParseReport(body)
	if err != nil {
		return nil, fmt.Errorf("parsing validation report: %w", err)
	}
	if err := c.disk.Put(fingerprint, body); err != nil {
		c.logger.Warn("caching report", "fingerprint", fingerprint, "error", err)
	}
	return report, nil
}
