package fluxdesk

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("fluxdesk: no store configured")
	ErrStoreClosed = errors.New("fluxdesk: store closed")

	// Not found errors.
	ErrTicketNotFound = errors.New("fluxdesk: ticket not found")
	ErrUserNotFound   = errors.New("fluxdesk: user not found")
	ErrEventNotFound  = errors.New("fluxdesk: event not found")
	ErrRunNotFound    = errors.New("fluxdesk: run not found")
	ErrDLQNotFound    = errors.New("fluxdesk: dlq entry not found")

	// Conflict errors.
	ErrAlreadyExists = errors.New("fluxdesk: entity already exists")
	ErrEmailTaken    = errors.New("fluxdesk: email already registered")

	// Auth errors.
	ErrInvalidCredentials = errors.New("fluxdesk: invalid credentials")
)
