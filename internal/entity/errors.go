package entity

import "errors"

// Domain errors
var (
	// Catalog errors
	ErrInvalidFilter = errors.New("invalid question filter")

	// Survey state errors
	ErrCorruptState    = errors.New("corrupt survey state")
	ErrSessionNotFound = errors.New("survey session not found")

	// LLM boundary errors
	ErrUpstreamUnavailable       = errors.New("llm upstream unavailable")
	ErrMalformedUpstreamResponse = errors.New("malformed llm upstream response")
	ErrProtocolViolation         = errors.New("llm reply violates survey protocol")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
