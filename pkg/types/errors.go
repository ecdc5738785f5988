package types

import "errors"

// Parsing errors
var (
	// ErrUnknownVariant is returned when a variant name is not simple or complex
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrUnknownRepresentation is returned when a representation name is not recognized
	ErrUnknownRepresentation = errors.New("unknown representation")
)
