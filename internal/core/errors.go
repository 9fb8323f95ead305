package core

// errors.go defines the failure taxonomy and maps technical errors to
// user-facing messages with support codes.
//
// Every collaborator failure is caught at the orchestrator boundary and
// becomes exactly one user-visible message; record collections are never
// left partially mutated. Nothing is retried automatically; retry is
// always a deliberate user action.
//
// Error codes are grouped by category:
//
//	SYNC001 - Another operation is already in flight
//	SYNC002 - Operation not allowed in the current state
//	VAL001  - Service connection number is missing
//	VIS001  - Extraction produced no usable rows
//	VIS002  - Extraction service unreachable
//	VOICE01 - Voice capture unavailable in the browser
//	SHEET01 - History export unreachable
//	SHEET02 - Append was not acknowledged
//	RATE001 - Too many requests
//	ERR000  - Fallback for anything unrecognized

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions the orchestrator raises itself.
var (
	// ErrBusy means a second operation was attempted while Processing.
	ErrBusy = errors.New("sync busy: operation already in flight")

	// ErrWrongState means the operation is not valid in the current
	// state (e.g. editing a batch outside Review).
	ErrWrongState = errors.New("wrong state for operation")
)

// UserMessage is what a failure looks like to the technician.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// Patterns are matched in order against the lower-cased error text,
// the same way collaborators phrase their failures.
var errorPatterns = []errorPattern{
	{
		pattern: "operation already in flight",
		msg: UserMessage{
			Message: "Another sync operation is still running",
			Action:  "Wait for it to finish and try again",
			Code:    "SYNC001",
		},
	},
	{
		pattern: "wrong state",
		msg: UserMessage{
			Message: "That action is not available right now",
			Action:  "Return to the dashboard and try again",
			Code:    "SYNC002",
		},
	},
	{
		pattern: "missing required field",
		msg: UserMessage{
			Message: "SC Number is required",
			Action:  "Enter the 13-digit service connection number",
			Code:    "VAL001",
		},
	},
	{
		pattern: "extraction produced no data",
		msg: UserMessage{
			Message: "Unable to parse handwritten data",
			Action:  "Check image quality and try again",
			Code:    "VIS001",
		},
	},
	{
		pattern: "extraction transport unavailable",
		msg: UserMessage{
			Message: "Vision service is unreachable",
			Action:  "Check connectivity and the API key, then retry",
			Code:    "VIS002",
		},
	},
	{
		pattern: "voice services unavailable",
		msg: UserMessage{
			Message: "Voice capture is not available on this device",
			Action:  "Type the value instead",
			Code:    "VOICE01",
		},
	},
	{
		pattern: "history fetch",
		msg: UserMessage{
			Message: "Cloud Sync: Repository currently offline",
			Action:  "Refresh once the connection is back",
			Code:    "SHEET01",
		},
	},
	{
		pattern: "append failed",
		msg: UserMessage{
			Message: "Cloud append failed",
			Action:  "Your entries are preserved; press submit to retry",
			Code:    "SHEET02",
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

// defaultMessage is the fallback for unexpected errors. Check the
// server log for the technical error when a user reports ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern wins; unknown errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders a failure for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Action == "" {
		return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
