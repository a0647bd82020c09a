// SPDX-License-Identifier: MIT

// Package strategy runs ordered extraction attempts and stops at the first
// success. A failing or panicking attempt never aborts the chain.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status classifies the outcome of a single attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of an attempt.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Found wraps a successful value.
func Found[T any](v T) Result[T] {
	return Result[T]{Status: StatusSuccess, Value: v}
}

// Missing reports that the attempt ran cleanly but found nothing.
func Missing[T any](reason string) Result[T] {
	var err error
	if reason != "" {
		err = errors.New(reason)
	}
	return Result[T]{Status: StatusNotFound, Err: err}
}

// Failed reports that the attempt could not run to completion.
func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusError, Err: err}
}

// Attempt is a named extraction step.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) Result[T]
}

// Outcome describes one finished attempt for observers.
type Outcome struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Observer receives every attempt outcome in order. It may be nil.
type Observer func(Outcome)

// ErrExhausted is returned by First when no attempt succeeded.
var ErrExhausted = errors.New("all strategies exhausted")

// ExhaustedError lists the outcome of every attempt that ran.
type ExhaustedError struct {
	Outcomes []Outcome
}

func (e *ExhaustedError) Error() string {
	if len(e.Outcomes) == 0 {
		return ErrExhausted.Error() + " (none configured)"
	}
	parts := make([]string, len(e.Outcomes))
	for i, o := range e.Outcomes {
		if o.Err != nil {
			parts[i] = fmt.Sprintf("%s: %s: %v", o.Name, o.Status, o.Err)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", o.Name, o.Status)
		}
	}
	return ErrExhausted.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrExhausted followed by every attempt's error.
func (e *ExhaustedError) Unwrap() []error {
	errs := []error{ErrExhausted}
	for _, o := range e.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// First runs attempts in order and returns the first successful value along
// with the name of the attempt that produced it. Context cancellation stops
// the chain before the next attempt starts.
func First[T any](ctx context.Context, attempts []Attempt[T], observe Observer) (T, string, error) {
	var zero T
	outcomes := make([]Outcome, 0, len(attempts))
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		start := time.Now()
		res := run(ctx, a)
		o := Outcome{Name: a.Name, Status: res.Status, Err: res.Err, Duration: time.Since(start)}
		if observe != nil {
			observe(o)
		}
		if res.Status == StatusSuccess {
			return res.Value, a.Name, nil
		}
		outcomes = append(outcomes, o)
	}
	return zero, "", &ExhaustedError{Outcomes: outcomes}
}

func run[T any](ctx context.Context, a Attempt[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed[T](fmt.Errorf("panic in strategy %s: %v", a.Name, r))
		}
	}()
	if a.Run == nil {
		return Failed[T](fmt.Errorf("strategy %s has no implementation", a.Name))
	}
	return a.Run(ctx)
}
