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

// Package remote talks to the external rule engine that produces the
// diagnostics for a plan.
package remote

import (
	"context"
	"fmt"

	"github.com/tinywasm/fetch"
)

// Fetcher retrieves a validation report body from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher implements Fetcher with tinywasm/fetch, so the same client
// runs in the CLI and in the browser build.
type HTTPFetcher struct{}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// Fetch issues a GET and returns the body of a 200 response. A canceled
// ctx abandons the request; the callback result is dropped.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)

	fetch.Get(url).Send(func(resp *fetch.Response, err error) {
		switch {
		case err != nil:
			done <- result{err: &FetchError{URL: url, Message: err.Error()}}
		case resp.Status != 200:
			done <- result{err: &FetchError{URL: url, StatusCode: resp.Status, Message: fmt.Sprintf("HTTP %d", resp.Status)}}
		default:
			done <- result{body: resp.Body()}
		}
	})

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, &FetchError{URL: url, Message: ctx.Err().Error(), cause: ctx.Err()}
	}
}

// FetchError is a failed request to the validation service.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// Unwrap exposes context cancellation to errors.Is.
func (e *FetchError) Unwrap() error {
	return e.cause
}

// IsNotFound reports a 404 response.
func (e *FetchError) IsNotFound() bool {
	return e.StatusCode == 404
}

// Temporary reports whether retrying the same request may succeed.
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
