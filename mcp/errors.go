/*
Copyright © 2026 Stride contributors
*/
package mcp

import "fmt"

// Error carries a stable code alongside the message so MCP clients can branch
// on failure kinds without parsing text.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a structured tool error.
func NewError(code, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}
