// SPDX-License-Identifier: MIT

package upstream

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrTimeout     = errors.New("upstream: request timed out")
	ErrUnavailable = errors.New("upstream: host unreachable or transport failure")
	ErrStatus      = errors.New("upstream: unexpected HTTP status")
	ErrRateLimited = errors.New("upstream: rate limited")
	ErrBadResponse = errors.New("upstream: unreadable response body")
)

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel error
	Op       string
	URL      string
	Status   int
	Err      error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}
