package core

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnprocessable    = errors.New("unprocessable request")
	ErrNoSubmissions    = errors.New("no submissions")
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrInvalidStudent   = errors.New("invalid student name")
	ErrHostNotAvailable = errors.New("review host not available")
)
