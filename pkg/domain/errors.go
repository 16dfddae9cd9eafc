package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPromptNotFound is returned when a prompt name is missing from the catalog.
var ErrPromptNotFound = errors.New("prompt not found")

// ErrEmptyInput is returned when a turn is started without a user message.
var ErrEmptyInput = errors.New("empty user message")

// ErrNoOracle is returned when a step that needs the oracle is built without one.
var ErrNoOracle = errors.New("no oracle configured")

// ErrUnknownProvider is returned when the configured oracle provider is not supported.
var ErrUnknownProvider = errors.New("unknown oracle provider")

// ErrInvalidSessionID is returned when a store cannot use the given session ID.
var ErrInvalidSessionID = errors.New("invalid session id")
