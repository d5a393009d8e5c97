package legalaid_errors

import "errors"

// Common errors
var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotConnected         = errors.New("socket not connected")
	ErrReconnectExhausted   = errors.New("reconnect attempts exhausted")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrNoActiveConversation = errors.New("no active conversation")
)
