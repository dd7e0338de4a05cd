package repository

import "errors"

var (
	// ErrNotFound means no observation exists for the requested asset.
	ErrNotFound = errors.New("observation not found")
	// ErrEmptyResponse means the provider answered with a syntactically
	// valid but empty payload.
	ErrEmptyResponse = errors.New("provider returned no data")
	// ErrSourceUnavailable means the provider call failed on transport,
	// timeout or a non-success status.
	ErrSourceUnavailable = errors.New("quote source unavailable")
	// ErrInvalidArgument means a request parameter is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)
