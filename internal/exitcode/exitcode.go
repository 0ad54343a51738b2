// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, bad flag value).
	UserError = 1

	// AuthError indicates a session or credential error.
	AuthError = 2

	// BackendError indicates a backend/API/network error, or a write the
	// backend refused.
	BackendError = 3
)
