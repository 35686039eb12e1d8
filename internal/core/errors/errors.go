// Package errors provides centralized error definitions for the application.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Entity resolution errors.
var (
	// ErrChannelNotFound indicates a channel could not be found in storage.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrCommentNotFound indicates a comment could not be found in storage.
	// An approved request whose comment is gone is orphaned and gets deleted.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrRequestNotFound indicates a request could not be found or was not in
	// the expected state for a transition.
	ErrRequestNotFound = errors.New("request not found")
)

// Client errors.
var (
	// ErrNotAuthorized indicates the platform client has no stored credentials.
	ErrNotAuthorized = errors.New("platform client not authorized")

	// ErrEmptyResponse indicates an empty response was received from the LLM.
	ErrEmptyResponse = errors.New("empty response")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
