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

package validate

import (
	"context"
	"runtime"
	"sync"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/session"
	"bennypowers.dev/malla/store"
	"bennypowers.dev/malla/validation"
)

// Result is one NDJSON line of batch output.
type Result struct {
	File     string   `json:"file"`
	Errors   int      `json:"errors"`
	Warnings int      `json:"warnings"`
	Outdated bool     `json:"outdated,omitempty"`
	Kinds    []string `json:"planErrors,omitempty"`
	Error    string   `json:"error,omitempty"`

	plan   *plan.Plan
	digest *validation.Digest
}

// ValidateBatch validates files on a pool of workers. Results arrive in
// completion order; the channel is closed when all files are done.
func ValidateBatch(ctx context.Context, osfs fs.FileSystem, v session.Validator, files []string, parallel int) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))
		var wg sync.WaitGroup
		for range min(parallel, len(files)) {
			wg.Go(func() {
				for file := range jobs {
					results <- validateFile(ctx, osfs, v, file)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)
		wg.Wait()
	}()

	return results
}

func validateFile(ctx context.Context, osfs fs.FileSystem, v session.Validator, file string) Result {
	result := Result{File: file}
	p, err := store.ReadFile(osfs, file)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	report, err := v.Validate(ctx, p)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	d := validation.NewCache(nil).Get(p, report)
	summarize(&result, d)
	result.plan = p
	result.digest = d
	return result
}
