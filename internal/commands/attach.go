package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"flowtrack/internal/config"
	"flowtrack/internal/exitcode"
	"flowtrack/internal/filefield"
	"flowtrack/internal/service"
)

func init() {
	Register(&AttachCmd{})
}

// AttachCmd implements the attach command. It mounts the task's file field,
// pushes the new file list and stores it on the task.
type AttachCmd struct {
	field string
	from  string
	stdin io.Reader
	opts  []filefield.Option
}

// SetStdin sets the reader used for --from - (for testing).
func (c *AttachCmd) SetStdin(r io.Reader) {
	c.stdin = r
}

// SetFieldOptions sets extra options for the file field (for testing).
func (c *AttachCmd) SetFieldOptions(opts ...filefield.Option) {
	c.opts = opts
}

func (c *AttachCmd) Name() string      { return "attach" }
func (c *AttachCmd) Aliases() []string { return nil }
func (c *AttachCmd) Synopsis() string  { return "Replace a task's attachments" }
func (c *AttachCmd) Usage() string {
	return "flowtrack attach [--field <key>] --from <file.json|-> <id>"
}
func (c *AttachCmd) NeedsAuth() bool { return true }

func (c *AttachCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.field, "field", service.FieldAttachments, "")
	fs.StringVar(&c.from, "from", "", "")
}

func (c *AttachCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		return reportIDError(errOut, err)
	}
	if c.from == "" {
		fmt.Fprintln(errOut, "error: --from required")
		return exitcode.UserError
	}

	files, err := c.readFiles()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	locate := svc.Files()
	if locate == nil {
		fmt.Fprintln(errOut, "error: file uploader not configured")
		return exitcode.BackendError
	}

	task, err := findTask(ctx, svc, id)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	opts := append([]filefield.Option{filefield.WithLogger(*zerolog.Ctx(ctx))}, c.opts...)
	field := filefield.New(strconv.Itoa(id), locate, opts...)
	defer field.Close(ctx)

	fieldCfg := filefield.Config{
		FieldKey:      c.field,
		TableName:     service.TableName,
		ProjectID:     cfg.Apper.ProjectID,
		PublicKey:     cfg.Apper.PublicKey,
		ExistingFiles: task.Attachments,
	}
	field.Apply(ctx, fieldCfg)
	if !field.Ready() {
		fmt.Fprintf(errOut, "error: %s\n", field.Err())
		return exitcode.BackendError
	}

	fieldCfg.ExistingFiles = files
	field.Apply(ctx, fieldCfg)
	if msg := field.Err(); msg != "" {
		fmt.Fprintf(errOut, "error: %s\n", msg)
		return exitcode.BackendError
	}

	// Other field keys live only in the uploader.
	if c.field == service.FieldAttachments {
		if _, err := svc.Update(ctx, id, service.Payload{service.FieldAttachments: files}); err != nil {
			return reportWriteError(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "attached %d file(s) to task %d\n", len(files), id)
	}
	return exitcode.Success
}

// readFiles decodes the JSON file list named by --from.
func (c *AttachCmd) readFiles() ([]filefield.File, error) {
	var data []byte
	var err error
	if c.from == "-" {
		r := c.stdin
		if r == nil {
			r = os.Stdin
		}
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(c.from)
	}
	if err != nil {
		return nil, fmt.Errorf("read files: %w", err)
	}

	var files []filefield.File
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("invalid file list: %w", err)
	}
	if files == nil {
		files = []filefield.File{}
	}
	return files, nil
}
