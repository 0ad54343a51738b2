package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"flowtrack/internal/config"
	"flowtrack/internal/exitcode"
	"flowtrack/internal/service"
)

func init() {
	Register(&UpdateCmd{})
}

// UpdateCmd implements the update command. Only flags given on the
// command line are sent.
type UpdateCmd struct {
	title       optionalString
	description optionalString
	priority    optionalString
	status      optionalString
}

func (c *UpdateCmd) Name() string      { return "update" }
func (c *UpdateCmd) Aliases() []string { return []string{"edit"} }
func (c *UpdateCmd) Synopsis() string  { return "Change task attributes" }
func (c *UpdateCmd) Usage() string {
	return "flowtrack update [--title <t>] [--description <d>] [--priority <p>] [--status <s>] <id>"
}
func (c *UpdateCmd) NeedsAuth() bool { return true }

func (c *UpdateCmd) RegisterFlags(fs *flag.FlagSet) {
	for _, o := range []*optionalString{&c.title, &c.description, &c.priority, &c.status} {
		o.reset()
	}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
	fs.Var(&c.status, "status", "")
	fs.Var(&c.status, "s", "")
}

func (c *UpdateCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		return reportIDError(errOut, err)
	}

	p := service.Payload{}
	if c.title.set {
		if strings.TrimSpace(c.title.value) == "" {
			fmt.Fprintln(errOut, "error: title cannot be empty")
			return exitcode.UserError
		}
		p["title"] = c.title.value
	}
	if c.description.set {
		p["description"] = c.description.value
	}
	if c.priority.set {
		if code := validateValues(errOut, c.priority.value, ""); code != exitcode.Success {
			return code
		}
		p["priority"] = c.priority.value
	}
	if c.status.set {
		if code := validateValues(errOut, "", c.status.value); code != exitcode.Success {
			return code
		}
		p["status"] = c.status.value
	}
	if len(p) == 0 {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	if _, err := svc.Update(ctx, id, p); err != nil {
		return reportWriteError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
