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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
	status      string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "flowtrack add [--description <text>] [--priority <p>] [--status <s>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", service.PriorityMedium, "")
	fs.StringVar(&c.priority, "p", service.PriorityMedium, "")
	fs.StringVar(&c.status, "status", service.StatusOpen, "")
	fs.StringVar(&c.status, "s", service.StatusOpen, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	if code := validateValues(errOut, c.priority, c.status); code != exitcode.Success {
		return code
	}

	task, err := svc.Create(ctx, service.Payload{
		"title":       title,
		"description": c.description,
		"priority":    c.priority,
		"status":      c.status,
	})
	if err != nil {
		return reportWriteError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "created task %d\n", task.ID)
	}
	return exitcode.Success
}

// validateValues checks non-empty priority and status values.
func validateValues(errOut io.Writer, priority, status string) int {
	if priority != "" && !service.ValidPriority(priority) {
		fmt.Fprintf(errOut, "error: invalid priority: %s (want low, medium or high)\n", priority)
		return exitcode.UserError
	}
	if status != "" && !service.ValidStatus(status) {
		fmt.Fprintf(errOut, "error: invalid status: %s (want open, in-progress or completed)\n", status)
		return exitcode.UserError
	}
	return exitcode.Success
}
