// Package source fetches the chart text that candleterm renders.
//
// A Source is polled once per refresh cycle. FileSource reads a file that an
// external generator keeps up to date, CommandSource runs the generator and
// captures its output, and StaticSource returns fixed text.
package source

import (
	"context"
	"os"
	"path/filepath"
)

// Source produces one frame of chart text per call.
type Source interface {
	// Name identifies the source in logs and the status line.
	Name() string

	// Fetch returns the current chart text. Failures are *FetchError.
	Fetch(ctx context.Context) (string, error)
}

// FileSource reads chart text from a file.
type FileSource struct {
	path string
}

// NewFileSource creates a source that reads path on every fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the base name of the file.
func (s *FileSource) Name() string {
	return filepath.Base(s.path)
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Source: s.Name(), Err: err}
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", &FetchError{Source: s.Name(), Err: err}
	}
	return string(data), nil
}

// StaticSource returns the same text on every fetch.
type StaticSource struct {
	name string
	text string
}

// NewStaticSource creates a source that always returns text.
func NewStaticSource(name, text string) *StaticSource {
	return &StaticSource{name: name, text: text}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Source: s.name, Err: err}
	}
	return s.text, nil
}
