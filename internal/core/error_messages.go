package core

// # Error Codes Reference
//
// Fatal errors are shown to the operator as "Message (Code: XXX). Action".
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Input not found: The input file does not exist
//	          Action: Check the path or pass the input file as the first argument
//	FILE002 - Input not readable: The input file could not be opened
//	          Action: Check file permissions
//	FILE003 - Empty file: The input has no header row
//	          Action: Provide a table with a header row and patient rows
//	FILE004 - Invalid CSV: The input could not be parsed
//	          Action: Check quoting and the --delimiter option
//	FILE005 - Encoding error: The input is not valid in the chosen encoding
//	          Action: Pass the right --encoding (e.g. latin1)
//	FILE006 - Unknown encoding: The encoding name is not supported
//	          Action: Use utf-8, utf-8-sig, latin1, windows-1252 or utf-16
//	FILE007 - Output not writable: The output file could not be written
//	          Action: Check the output directory exists and is writable
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: The weight or height column is missing
//	         Action: Name it with --weight-column / --height-column
//	COL002 - Ambiguous column: More than one column matches
//	         Action: Name it with --weight-column / --height-column
//	COL003 - Column collision: The input already has a result column
//	         Action: Switch --column-names or rename the input column
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Invalid row: A row has unusable weight or height (strict policy)
//	         Action: Fix the row or run with --policy skip
//
// # Option Errors (CFG001-CFG099)
//
//	CFG001 - Invalid option: An option value is not accepted
//	         Action: Run with --help to see accepted values
//
// # Cancellation (RUN001)
//
//	RUN001 - Cancelled: The run was interrupted before finishing
//	         Action: Run again; no output was written

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage is an operator-facing explanation of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference code
}

// errorMapping binds a sentinel error to its user message.
type errorMapping struct {
	target error
	msg    UserMessage
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{ErrInputNotFound, UserMessage{
		Message: "Input file not found",
		Action:  "Check the path or pass the input file as the first argument",
		Code:    "FILE001",
	}},
	{ErrInputAccess, UserMessage{
		Message: "Input file could not be opened",
		Action:  "Check file permissions",
		Code:    "FILE002",
	}},
	{ErrEmptyInput, UserMessage{
		Message: "The input has no header row",
		Action:  "Provide a table with a header row and patient rows",
		Code:    "FILE003",
	}},
	{ErrInvalidCSV, UserMessage{
		Message: "The input could not be parsed",
		Action:  "Check quoting and the --delimiter option",
		Code:    "FILE004",
	}},
	{ErrEncoding, UserMessage{
		Message: "The input is not valid in the chosen encoding",
		Action:  "Pass the right --encoding (e.g. latin1)",
		Code:    "FILE005",
	}},
	{ErrUnknownEncoding, UserMessage{
		Message: "Unsupported encoding",
		Action:  "Use utf-8, utf-8-sig, latin1, windows-1252 or utf-16",
		Code:    "FILE006",
	}},
	{ErrOutputUnwritable, UserMessage{
		Message: "The output file could not be written",
		Action:  "Check the output directory exists and is writable",
		Code:    "FILE007",
	}},

	// =========================================================================
	// Column Errors (COL001-COL003)
	// =========================================================================
	{ErrColumnNotFound, UserMessage{
		Message: "Weight or height column not found",
		Action:  "Name it with --weight-column / --height-column",
		Code:    "COL001",
	}},
	{ErrAmbiguousColumn, UserMessage{
		Message: "More than one column matches",
		Action:  "Name it with --weight-column / --height-column",
		Code:    "COL002",
	}},
	{ErrColumnCollision, UserMessage{
		Message: "The input already has a result column",
		Action:  "Switch --column-names or rename the input column",
		Code:    "COL003",
	}},

	// =========================================================================
	// Row and option errors
	// =========================================================================
	{ErrInvalidRow, UserMessage{
		Message: "A row has unusable weight or height",
		Action:  "Fix the row or run with --policy skip",
		Code:    "ROW001",
	}},
	{ErrInvalidOption, UserMessage{
		Message: "Invalid option",
		Action:  "Run with --help to see accepted values",
		Code:    "CFG001",
	}},
	{context.Canceled, UserMessage{
		Message: "Run cancelled",
		Action:  "Run again; no output was written",
		Code:    "RUN001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000). The detailed
// error is still printed after the message.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Run again with --log-level debug for details",
	Code:    "ERR000",
}

// MapError converts an error to an operator-facing message. Returns the
// zero UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action" followed by the
// specific detail, which names the missing file, column or row.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s\n  detail: %v", msg.Message, msg.Code, msg.Action, err)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its mapped message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
