package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Provider failure taxonomy. Callers branch on these rather than on
	// transport error types.

	// ErrProviderUnavailable indicates the embedding or language-model
	// service refused the connection or failed its health probe.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderTimeout indicates a provider call exceeded its deadline.
	// Retry decisions are left to the operator; nothing retries internally.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrMalformedResponse indicates a provider returned a payload that
	// could not be decoded or was missing an expected field.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNoResults indicates retrieval surfaced nothing relevant.
	// This is a distinct outcome, not a provider fault.
	ErrNoResults = errors.New("no relevant documents")
)
