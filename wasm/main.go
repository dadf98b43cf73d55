//go:build js && wasm

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

// Package main provides the WASM entry point for malla. Every export takes
// and returns JSON strings so the page can keep plans as plain objects.
package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"bennypowers.dev/malla/digest"
	"bennypowers.dev/malla/mutate"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/remote"
	"bennypowers.dev/malla/validation"
)

// Version is the malla WASM version.
const Version = "0.1.0"

func main() {
	malla := make(map[string]any)
	malla["digest"] = js.FuncOf(planDigest)
	malla["validationDigest"] = js.FuncOf(validationDigest)
	malla["validateMove"] = js.FuncOf(validateMove)
	malla["move"] = js.FuncOf(edit(doMove))
	malla["remove"] = js.FuncOf(edit(doRemove))
	malla["insert"] = js.FuncOf(edit(doInsert))
	malla["resolve"] = js.FuncOf(edit(doResolve))
	malla["unresolve"] = js.FuncOf(edit(doUnresolve))
	malla["validate"] = js.FuncOf(validate)
	malla["version"] = Version

	js.Global().Set("malla", js.ValueOf(malla))

	select {}
}

// planDigest(planJSON) returns the class-id index of a plan.
func planDigest(this js.Value, args []js.Value) any {
	p, err := planArg(args, 0)
	if err != nil {
		return errorValue(err)
	}
	return jsonValue(digest.Build(p))
}

// validationDigest(planJSON, reportJSON) attaches a report's diagnostics
// to the plan.
func validationDigest(this js.Value, args []js.Value) any {
	p, err := planArg(args, 0)
	if err != nil {
		return errorValue(err)
	}
	if len(args) < 2 {
		return errorValue(&jsError{message: "validationDigest requires a plan and a report"})
	}
	report, err := validation.ParseReport([]byte(args[1].String()))
	if err != nil {
		return errorValue(&jsError{message: "failed to parse report: " + err.Error()})
	}
	return jsonValue(validation.Build(p, digest.Build(p), report.Diagnostics, report.CourseSuperblocks))
}

// validateMove(planJSON, from, to, completedThrough?) returns the
// violation as JSON, or null when the move is allowed.
func validateMove(this js.Value, args []js.Value) any {
	p, err := planArg(args, 0)
	if err != nil {
		return errorValue(err)
	}
	from, to, err := positions(args, 1)
	if err != nil {
		return errorValue(err)
	}
	v := guardArg(args, 3).ValidateMove(p, from, to)
	if v == nil {
		return js.Null()
	}
	return jsonValue(map[string]any{
		"type":     v.Type.String(),
		"code":     v.Code,
		"semester": v.Semester,
	})
}

// edit wraps a plan mutation: the first argument is the plan JSON, the
// result is the edited plan JSON.
func edit(fn func(p *plan.Plan, args []js.Value) (*plan.Plan, error)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		p, err := planArg(args, 0)
		if err != nil {
			return errorValue(err)
		}
		out, err := fn(p, args)
		if err != nil {
			return errorValue(err)
		}
		return jsonValue(out)
	}
}

func doMove(p *plan.Plan, args []js.Value) (*plan.Plan, error) {
	from, to, err := positions(args, 1)
	if err != nil {
		return nil, err
	}
	out, v := mutate.TryMove(p, guardArg(args, 3), from, to)
	if v != nil {
		return nil, &jsError{message: v.Code + ": " + v.Type.String()}
	}
	return out, nil
}

func doRemove(p *plan.Plan, args []js.Value) (*plan.Plan, error) {
	pos, err := position(args, 1)
	if err != nil {
		return nil, err
	}
	return mutate.Remove(p, pos), nil
}

// doInsert(planJSON, pos, slotJSON) where slotJSON uses the plan file
// slot shape.
func doInsert(p *plan.Plan, args []js.Value) (*plan.Plan, error) {
	pos, err := position(args, 1)
	if err != nil {
		return nil, err
	}
	if len(args) < 3 {
		return nil, &jsError{message: "insert requires a slot"}
	}
	wrapped, err := plan.Parse([]byte(`{"semesters":[[` + args[2].String() + `]]}`))
	if err != nil {
		return nil, &jsError{message: "failed to parse slot: " + err.Error()}
	}
	slot, ok := wrapped.At(plan.CoursePos{})
	if !ok {
		return nil, &jsError{message: "insert requires a slot"}
	}
	return mutate.Insert(p, pos, slot), nil
}

// doResolve(planJSON, pos, code, credits)
func doResolve(p *plan.Plan, args []js.Value) (*plan.Plan, error) {
	pos, err := position(args, 1)
	if err != nil {
		return nil, err
	}
	if len(args) < 4 {
		return nil, &jsError{message: "resolve requires a course code and credits"}
	}
	return mutate.ResolveEquivalence(p, pos, args[2].String(), args[3].Int()), nil
}

func doUnresolve(p *plan.Plan, args []js.Value) (*plan.Plan, error) {
	pos, err := position(args, 1)
	if err != nil {
		return nil, err
	}
	return mutate.Unresolve(p, pos), nil
}

// validate(planJSON, urlTemplate?) fetches the report for a plan from the
// validation service. Returns a Promise that resolves to the report JSON.
func validate(this js.Value, args []js.Value) any {
	handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) any {
		resolve := promiseArgs[0]
		reject := promiseArgs[1]

		go func() {
			result, err := doValidate(args)
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(result)
		}()

		return nil
	})

	promise := js.Global().Get("Promise").New(handler)
	handler.Release()
	return promise
}

var client *remote.Client

func doValidate(args []js.Value) (string, error) {
	p, err := planArg(args, 0)
	if err != nil {
		return "", err
	}
	c := client
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		c, err = remote.NewClient(args[1].String())
	} else if c == nil {
		c, err = remote.NewClient("", remote.WithCache(remote.NewReportCache(32)))
		client = c
	}
	if err != nil {
		return "", &jsError{message: "invalid validator url: " + err.Error()}
	}
	report, err := c.Validate(context.Background(), p)
	if err != nil {
		return "", &jsError{message: "failed to validate plan: " + err.Error()}
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", &jsError{message: "failed to serialize report: " + err.Error()}
	}
	return string(data), nil
}

func planArg(args []js.Value, i int) (*plan.Plan, error) {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return nil, &jsError{message: "expected a plan JSON string"}
	}
	p, err := plan.Parse([]byte(args[i].String()))
	if err != nil {
		return nil, &jsError{message: "failed to parse plan: " + err.Error()}
	}
	return p, nil
}

// position reads {semester, index} at args[i]; an index of "end" or a
// missing index appends.
func position(args []js.Value, i int) (plan.CoursePos, error) {
	if len(args) <= i || args[i].Type() != js.TypeObject {
		return plan.CoursePos{}, &jsError{message: "expected a {semester, index} position"}
	}
	pos := plan.CoursePos{Semester: args[i].Get("semester").Int(), Index: plan.End}
	if index := args[i].Get("index"); index.Type() == js.TypeNumber {
		pos.Index = index.Int()
	}
	return pos, nil
}

func positions(args []js.Value, i int) (from, to plan.CoursePos, err error) {
	if from, err = position(args, i); err != nil {
		return from, to, err
	}
	to, err = position(args, i+1)
	return from, to, err
}

func guardArg(args []js.Value, i int) mutate.Guard {
	if len(args) <= i || args[i].Type() != js.TypeNumber {
		return mutate.NoGuard
	}
	return mutate.Guard{CompletedThrough: args[i].Int()}
}

func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorValue(&jsError{message: "failed to serialize result: " + err.Error()})
	}
	return string(data)
}

func errorValue(err error) any {
	return js.Global().Get("Error").New(err.Error())
}

// jsError represents an error to be returned to JavaScript.
type jsError struct {
	message string
}

func (e *jsError) Error() string {
	return e.message
}
