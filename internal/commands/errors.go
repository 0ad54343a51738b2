package commands

import (
	"errors"
	"fmt"
	"io"

	"flowtrack/internal/apper"
	"flowtrack/internal/exitcode"
	"flowtrack/internal/service"
)

// reportWriteError prints err and returns the matching exit code.
// Backend rejections have already been shown through the notifier.
func reportWriteError(errOut io.Writer, err error) int {
	var be *service.BackendError
	switch {
	case errors.As(err, &be):
		return exitcode.BackendError
	case errors.Is(err, service.ErrClientUnavailable):
		fmt.Fprintln(errOut, "error: backend not configured (set APPER_PROJECT_ID and APPER_PUBLIC_KEY)")
		return exitcode.BackendError
	case errors.Is(err, apper.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotCreated), errors.Is(err, service.ErrNotUpdated):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// reportIDError prints a task id parse error.
func reportIDError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitcode.UserError
}
