package domain

import "errors"

var (
	// ErrEmptyText is returned when a task or comment body is blank.
	ErrEmptyText = errors.New("text must not be empty")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller does not own the record.
	ErrForbidden = errors.New("forbidden")
)
