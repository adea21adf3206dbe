package source

import (
	"errors"
	"fmt"
)

// Errors returned by sources and watchers.
var (
	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher is closed")
)

// FetchError reports a failed fetch.
type FetchError struct {
	// Source is the name of the failing source.
	Source string
	// Stderr holds the trimmed error output of a failed command.
	Stderr string
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("fetch %s: %v: %s", e.Source, e.Err, e.Stderr)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
