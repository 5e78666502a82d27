package domain

import "errors"

var (
	// ErrExpertNotFound signals a missing expert profile.
	ErrExpertNotFound = errors.New("expert not found")
	// ErrSemanticUnavailable signals that the semantic backend could not be
	// reached or answered with a non-success status. Callers degrade to
	// lexical-only scoring instead of failing the request.
	ErrSemanticUnavailable = errors.New("semantic backend unavailable")
	// ErrInvalidCSV signals an unusable catalog upload.
	ErrInvalidCSV = errors.New("invalid csv")
)
