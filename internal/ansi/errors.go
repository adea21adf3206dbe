package ansi

import (
	"errors"
	"fmt"
)

// ErrMalformedInput indicates text that cannot be tokenized: invalid UTF-8
// or an escape sequence that is truncated or syntactically broken.
var ErrMalformedInput = errors.New("malformed input")

// SyntaxError describes where tokenizing failed.
type SyntaxError struct {
	Offset int    // Byte offset in the scanned line
	Msg    string // What was wrong
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at byte %d: %s", ErrMalformedInput, e.Offset, e.Msg)
}

// Unwrap returns ErrMalformedInput so callers can match with errors.Is.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformedInput
}
