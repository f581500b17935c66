package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotTracked reports a path that does not resolve to a git repository root.
var ErrNotTracked = errors.New("not inside a git repository")

// QueryError is returned when a git invocation exits unsuccessfully. Stderr
// holds the trimmed error stream so callers can show it verbatim.
type QueryError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *QueryError) Error() string {
	name := "git"
	if len(e.Args) > 0 {
		name = "git " + e.Args[0]
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", name, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Command returns the full command line for diagnostics.
func (e *QueryError) Command() string {
	return strings.TrimSpace("git " + strings.Join(e.Args, " "))
}
