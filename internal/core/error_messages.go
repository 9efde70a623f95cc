package core

// error_messages.go maps technical errors to messages an operator can act on.
//
// Each message carries a code for support reference:
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - No usable domains       Patterns: "no valid domains"
//	FILE003 - No file                 Patterns: "no file provided"
//	UPL001  - Upload in progress      Patterns: "upload already in progress"
//	UPL002  - Request cancelled       Patterns: "context canceled"
//	UPL003  - Request timeout         Patterns: "context deadline exceeded", "timeout"
//	SVC001  - Service unreachable     Patterns: "connection refused", "no such host"
//	SVC002  - Service rejected batch  Patterns: "ingestion service returned status"
//	SVC003  - Unreadable response     Patterns: "decode bulk result"
//	RATE001 - Rate limited            Patterns: "rate limit"
//	ERR000  - Anything else
//
// Patterns are matched case-insensitively with strings.Contains. The first
// matching pattern wins, so specific patterns sit above general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg:     UserMessage{Message: "File exceeds the maximum upload size", Action: "Split the file into smaller chunks", Code: "FILE001"},
	},
	{
		pattern: "request body too large",
		msg:     UserMessage{Message: "File exceeds the maximum upload size", Action: "Split the file into smaller chunks", Code: "FILE001"},
	},
	{
		pattern: "no valid domains",
		msg:     UserMessage{Message: "No valid domains found in the file", Action: "Put one domain per line, or domain,organization,sector", Code: "FILE002"},
	},
	{
		pattern: "no file provided",
		msg:     UserMessage{Message: "No file was selected", Action: "Choose a CSV or text file to upload", Code: "FILE003"},
	},
	{
		pattern: "upload already in progress",
		msg:     UserMessage{Message: "Another upload is still running", Action: "Wait for it to finish, then try again", Code: "UPL001"},
	},
	{
		pattern: "context canceled",
		msg:     UserMessage{Message: "Request was cancelled", Action: "Please try again", Code: "UPL002"},
	},
	{
		pattern: "context deadline exceeded",
		msg:     UserMessage{Message: "Request timed out", Action: "Try a smaller file or try again later", Code: "UPL003"},
	},
	{
		pattern: "timeout",
		msg:     UserMessage{Message: "Request timed out", Action: "Try a smaller file or try again later", Code: "UPL003"},
	},
	{
		pattern: "connection refused",
		msg:     UserMessage{Message: "Unable to reach the ingestion service", Action: "Please try again in a few moments", Code: "SVC001"},
	},
	{
		pattern: "no such host",
		msg:     UserMessage{Message: "Unable to reach the ingestion service", Action: "Check INGEST_SERVICE_URL", Code: "SVC001"},
	},
	{
		pattern: "ingestion service returned status",
		msg:     UserMessage{Message: "The ingestion service rejected the upload", Action: "Check the file and try again", Code: "SVC002"},
	},
	{
		pattern: "decode bulk result",
		msg:     UserMessage{Message: "The ingestion service sent an unreadable response", Action: "Please contact support", Code: "SVC003"},
	},
	{
		pattern: "rate limit",
		msg:     UserMessage{Message: "Too many requests", Action: "Please wait a moment before trying again", Code: "RATE001"},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
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

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
