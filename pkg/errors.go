// Package pkg holds utilities shared across the project.
// This file defines the domain-level errors.
//
// Services return these sentinels wrapped with a human readable detail:
//
//	return fmt.Errorf("%w: Access denied", pkg.ErrForbidden)
//
// and handlers translate them to HTTP status codes with errors.Is, so a
// wrapped error still matches.
package pkg

import "errors"

// Domain-level errors. Each one corresponds to one HTTP status class.
var (
	ErrNotFound        = errors.New("not found")         // 404
	ErrUnauthorized    = errors.New("unauthorized")      // 401, bad credentials or invalid/expired token
	ErrForbidden       = errors.New("forbidden")         // 403, authenticated but not allowed
	ErrAlreadyExists   = errors.New("already exists")    // 409, uniqueness violation
	ErrBadRequest      = errors.New("bad request")       // 400, validation failure
	ErrTooManyRequests = errors.New("too many requests") // 429
	ErrInternal        = errors.New("internal error")
)
