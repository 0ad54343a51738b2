package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"flowtrack/internal/config"
	"flowtrack/internal/exitcode"
	"flowtrack/internal/service"
	"flowtrack/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. It stores the user shown in the
// header; backend credentials come from the config.
type LoginCmd struct {
	email     string
	firstName string
	lastName  string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Start a session" }
func (c *LoginCmd) Usage() string {
	return "flowtrack login --email <address> [--first-name <n>] [--last-name <n>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.firstName, "first-name", "", "")
	fs.StringVar(&c.lastName, "last-name", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	email := strings.TrimSpace(c.email)
	if email == "" {
		fmt.Fprintln(errOut, "error: --email required")
		return exitcode.UserError
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fmt.Fprintf(errOut, "error: invalid email address: %s\n", email)
		return exitcode.UserError
	}

	if !cfg.HasCredentials() {
		fmt.Fprintf(errOut, "warning: backend not configured; set %s and %s or edit %s\n",
			config.EnvProjectID, config.EnvPublicKey, cfg.ConfigPath())
	}

	if cfg.User != nil && cfg.User.EmailAddress == email {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	user := session.User{
		FirstName:    strings.TrimSpace(c.firstName),
		LastName:     strings.TrimSpace(c.lastName),
		EmailAddress: email,
	}
	if err := session.NewStore(cfg.SessionPath()).Save(user); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	cfg.User = &user

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", user.DisplayName())
	}
	return exitcode.Success
}
