package errors

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("reservation conflict")
	ErrValidation = errors.New("invalid input")
	ErrUpstream   = errors.New("upstream failure")
)
