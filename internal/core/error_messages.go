// Package core provides the registration write path.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with a code that
// users can quote to support.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate user: A user with these details already exists
//	        Matches: SQLSTATE 23505, "duplicate key", "unique constraint"
//
//	DB002 - Missing value: A required column was rejected as NULL
//	        Matches: SQLSTATE 23502, "null value"
//
//	DB003 - Foreign key: Referenced record does not exist
//	        Matches: SQLSTATE 23503, "foreign key"
//
//	DB004 - Connection refused: Unable to reach the user store
//	        Matches: "connection refused", "no such host"
//
//	DB005 - Connection reset: Connection to the user store was interrupted
//	        Matches: "connection reset", "eof"
//
//	DB006 - Timeout: The user store took too long to respond
//	        Matches: "context deadline exceeded", "timeout"
//
//	DB007 - Check constraint: The store rejected a value
//	        Matches: SQLSTATE 23514, "check constraint"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid registration: One or more fields are invalid
//	         Matches: *ValidationError, "validation failed"
//
//	VAL002 - Malformed request: Request body is not valid JSON
//	         Matches: "invalid request body"
//
// # Access Errors (AUTH001-AUTH099)
//
//	AUTH001 - Not permitted: The user store refused the write
//	          Matches: SQLSTATE 42501, "permission denied", "row-level security"
//
//	AUTH002 - Session invalid: The session token could not be verified
//	          Matches: "invalid session"
//
// # Registration Errors (REG001-REG099)
//
//	REG001 - Busy: Too many registrations in flight
//	         Matches: "too many registrations"
//
//	REG002 - Cancelled: The request was cancelled
//	         Matches: "context canceled"
//
//	REG003 - Shutting down: The server no longer accepts registrations
//	         Matches: "shutting down"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Matches: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the original
// error, correlated by request ID.
//
// # Matching
//
// A *StoreError with a known SQLSTATE is mapped by code first. Otherwise
// patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicate = UserMessage{
		Message: "A user with these details already exists",
		Action:  "Sign in instead, or register with a different email",
		Code:    "DB001",
	}
	msgNotNull = UserMessage{
		Message: "A required value was missing",
		Action:  "Check that every required field is filled in",
		Code:    "DB002",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Make sure the account you are registering exists",
		Code:    "DB003",
	}
	msgCheck = UserMessage{
		Message: "A value was rejected by the user store",
		Action:  "Review the submitted values and try again",
		Code:    "DB007",
	}
	msgPermission = UserMessage{
		Message: "You are not allowed to create this user",
		Action:  "Sign in again and retry",
		Code:    "AUTH001",
	}
	msgInvalid = UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the highlighted fields and submit again",
		Code:    "VAL001",
	}
)

// sqlStateMessages maps SQLSTATE codes reported on a StoreError.
var sqlStateMessages = map[string]UserMessage{
	SQLStateUniqueViolation:     msgDuplicate,
	SQLStateNotNullViolation:    msgNotNull,
	SQLStateForeignKeyViolation: msgForeignKey,
	SQLStateCheckViolation:      msgCheck,
	SQLStateInsufficientPriv:    msgPermission,
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; keep specific patterns first.
var errorPatterns = []errorPattern{
	{pattern: "validation failed", msg: msgInvalid},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send the registration as a JSON object",
			Code:    "VAL002",
		},
	},

	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "null value", msg: msgNotNull},
	{pattern: "foreign key", msg: msgForeignKey},
	{pattern: "check constraint", msg: msgCheck},
	{pattern: "permission denied", msg: msgPermission},
	{pattern: "row-level security", msg: msgPermission},
	{
		pattern: "invalid session",
		msg: UserMessage{
			Message: "Your session could not be verified",
			Action:  "Sign in again and retry",
			Code:    "AUTH002",
		},
	},

	{
		pattern: "too many registrations",
		msg: UserMessage{
			Message: "The service is busy",
			Action:  "Please wait a moment and try again",
			Code:    "REG001",
		},
	},
	{
		pattern: "shutting down",
		msg: UserMessage{
			Message: "The service is restarting",
			Action:  "Please try again in a few moments",
			Code:    "REG003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REG002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The user store took too long to respond",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the user store",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the user store",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Connection to the user store was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The user store took too long to respond",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "eof",
		msg: UserMessage{
			Message: "Connection to the user store was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return msgInvalid
	}

	var serr *StoreError
	if errors.As(err, &serr) {
		if msg, ok := sqlStateMessages[serr.Code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
