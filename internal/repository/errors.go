package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid card image URL
	ErrInvalidImageURL = errors.New("invalid card image URL")

	// ErrSessionNotFound indicates the extraction session was not found
	ErrSessionNotFound = errors.New("extraction session not found")
)
