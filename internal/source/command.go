package source

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// maxStderr bounds the error output kept in a FetchError.
const maxStderr = 512

// CommandSource runs an external chart generator and uses its stdout.
type CommandSource struct {
	command string
	args    []string
	dir     string
}

// NewCommandSource creates a source that runs command with args on every fetch.
func NewCommandSource(command string, args ...string) *CommandSource {
	return &CommandSource{command: command, args: args}
}

// WithDir sets the working directory of the command.
func (s *CommandSource) WithDir(dir string) *CommandSource {
	s.dir = dir
	return s
}

// Name returns the base name of the command.
func (s *CommandSource) Name() string {
	return filepath.Base(s.command)
}

// Fetch runs the command. The process is killed when ctx is done; a
// non-zero exit returns a *FetchError carrying the command's stderr.
func (s *CommandSource) Fetch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Dir = s.dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &FetchError{
			Source: s.Name(),
			Stderr: truncate(strings.TrimSpace(stderr.String()), maxStderr),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
