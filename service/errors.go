package service

import "errors"

var (
	// ErrNotFound means an identifier did not resolve to a stored request
	ErrNotFound = errors.New("request not found")

	// ErrMalformedLine means a raw order line could not be coerced into the
	// schema; callers drop the line and continue
	ErrMalformedLine = errors.New("malformed order line")
)
