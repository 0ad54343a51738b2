package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"flowtrack/internal/config"
	"flowtrack/internal/exitcode"
	"flowtrack/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	now func() time.Time
}

// SetClock sets the clock used for the completion time (for testing).
func (c *DoneCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "flowtrack done <id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		return reportIDError(errOut, err)
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}

	_, err = svc.Update(ctx, id, service.Payload{
		"status":      service.StatusCompleted,
		"completedAt": now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
	if err != nil {
		return reportWriteError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
