package mcp

import "errors"

var (
	ErrInvalidTransport = errors.New("no transport for the tools session")
	ErrSessionClosed    = errors.New("tools session is closed")
	// ErrUnsupportedContent is returned when a tool answers with content
	// other than text, which none of the paracore tools produce.
	ErrUnsupportedContent = errors.New("unsupported tool result content")
)
