package services

import (
	"strings"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"param"`
	Message string `json:"msg"`
}

// ValidationError reports malformed or semantically invalid input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError reports that a referenced record does not exist.
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ForbiddenError reports that the caller lacks rights over a record.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Message
}

// ConflictError reports a valid request the current state does not allow.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

var (
	ErrInvalidRequesteeID = NewValidationError("requestee_id", "requestee_id is not a valid ID.")
	ErrCannotFriendSelf   = NewValidationError("requestee_id", "Cannot send a friend request to yourself.")
	ErrRequestAlreadySent = NewValidationError("requestee_id", "You already sent a friend request to them.")
	ErrAlreadyFriends     = NewValidationError("requestee_id", "You're already friends with them.")

	ErrFriendshipNotFound = &NotFoundError{Resource: "friendship", Message: "Friend request not found."}
	ErrAccountNotFound    = &NotFoundError{Resource: "account", Message: "Account not found."}

	ErrNotFriendshipRequestee   = &ForbiddenError{Message: "Not a valid friend request."}
	ErrNotFriendshipParticipant = &ForbiddenError{Message: "Not a valid friend request."}

	ErrFriendshipNotPending = &ConflictError{Message: "Friend request is already accepted."}
)
