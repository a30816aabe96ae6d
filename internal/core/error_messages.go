package core

// error_messages.go maps technical errors onto messages that callers can act on.
//
// # Error Codes Reference
//
// Codes are grouped by category so a caller can quote one when reporting a problem.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: the backing file for a source could not be read
//	         Action: Check the configured path for the source and try again
//	         Patterns: "unavailable"
//
//	SRC002 - Unknown source: no definition is registered under the requested key
//	         Action: List sources via /api/sources
//	         Patterns: "unknown source"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing columns: the release no longer has the expected columns
//	         Action: Update the keyword table for the source
//	         Patterns: "missing expected columns"
//
//	SCH002 - No tabular data: the backing file has no header or rows
//	         Action: Verify the file is the CSV/XLSX release for the source
//	         Patterns: "no tabular data"
//
// # Query Errors (QRY001-QRY099)
//
//	QRY001 - No data: nothing matched the requested filters
//	         Patterns: "no data found"
//
//	QRY002 - Bad parameter: a query parameter could not be interpreted
//	         Patterns: "invalid parameter"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the server logs for the technical error.
//
// Typed errors (*SchemaError and the Err* sentinels) are classified with
// errors.As and errors.Is first. Patterns are only a fallback for untyped
// errors: they are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgMissingColumns = UserMessage{
		Message: "The data release no longer has the expected columns",
		Action:  "Update the column keyword table for this source",
		Code:    "SCH001",
	}
	msgNoTabularData = UserMessage{
		Message: "The source file contains no tabular data",
		Action:  "Verify the configured file is the CSV or XLSX release",
		Code:    "SCH002",
	}
	msgUnknownSource = UserMessage{
		Message: "Unknown data source",
		Action:  "List available sources via /api/sources",
		Code:    "SRC002",
	}
	msgSourceUnavailable = UserMessage{
		Message: "The data source could not be loaded",
		Action:  "Check the configured path for the source and try again",
		Code:    "SRC001",
	}
	msgNoData = UserMessage{
		Message: "No data matched the requested filters",
		Action:  "Try a broader commodity or country name",
		Code:    "QRY001",
	}
	msgInvalidParameter = UserMessage{
		Message: "A query parameter could not be interpreted",
		Action:  "Check the parameter format and try again",
		Code:    "QRY002",
	}
)

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked with errors.Is, so text supplied by a caller
// (a country or commodity name echoed in the message) cannot change the code.
var errorKinds = []errorKind{
	{ErrUnknownSource, msgUnknownSource},
	{ErrSourceUnavailable, msgSourceUnavailable},
	{ErrNoData, msgNoData},
	{ErrInvalidParameter, msgInvalidParameter},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Schema
	{pattern: "missing expected columns", msg: msgMissingColumns},
	{pattern: "no tabular data", msg: msgNoTabularData},

	// Source
	{pattern: "unknown source", msg: msgUnknownSource},
	{pattern: "unavailable", msg: msgSourceUnavailable},

	// Query
	{pattern: "no data found", msg: msgNoData},
	{pattern: "invalid parameter", msg: msgInvalidParameter},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&SchemaError{Source: "usgs-mcs", Missing: []Role{RoleYear}})
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		if len(schemaErr.Missing) > 0 {
			return msgMissingColumns
		}
		return msgNoTabularData
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
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

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
