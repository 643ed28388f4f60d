package parser

import (
	"fmt"

	"github.com/robinvdvleuten/capitalg/record"
)

// ParseError represents a malformed row or value in a CSV file.
type ParseError struct {
	Pos        record.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *ParseError) GetPosition() record.Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

func newParseError(pos record.Position, err error, format string, args ...any) *ParseError {
	return &ParseError{
		Pos:        pos,
		Message:    fmt.Sprintf(format, args...),
		Underlying: err,
	}
}
