// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import "fmt"

// UnavailableError means the catalog could not be reached or answered with
// a server error.
type UnavailableError struct {
	// Status is the HTTP status, or 0 for transport failures.
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog unavailable (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("catalog unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ResponseError means the catalog answered but the answer cannot be used:
// a client error status or a body that is not a usable feature collection.
type ResponseError struct {
	Status int
	Reason string
	Err    error
}

func (e *ResponseError) Error() string {
	msg := "catalog response: " + e.Reason
	if e.Status != 0 && (e.Status < 200 || e.Status > 299) {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResponseError) Unwrap() error { return e.Err }
