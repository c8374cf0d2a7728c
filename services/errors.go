package services

import "errors"

// Failure taxonomy shared by the messaging services. Controllers translate
// these to HTTP statuses; anything else is a generic 500.
var (
	// ErrEmptyContent is returned when a message body is missing or blank.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrInvalidRecipient is returned for a malformed recipient id or an
	// unknown recipient kind.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrNotAuthorized is returned when the caller lacks ownership or
	// membership for the requested action. A membership check against a
	// nonexistent team/project also lands here, so callers cannot probe
	// for entity existence.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrMessageNotFound is returned when a message id matches nothing.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRecipientNotFound is returned when a recipient id resolves to no
	// user, team or project.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSessionNotFound is returned for unknown or expired bearer tokens.
	ErrSessionNotFound = errors.New("session not found")
)
