// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"flowtrack/internal/service"
	"flowtrack/internal/session"
)

const (
	// AppTitle is shown in the header.
	AppTitle = "FlowTrack"

	// Separator is the separator line under the header and detail titles.
	Separator = "------------"
)

// FormatHeader prints the application header for a logged-in user.
// Nothing is printed when user is nil.
func FormatHeader(w io.Writer, user *session.User) {
	if user == nil {
		return
	}
	fmt.Fprintf(w, "%s | Welcome, %s\n", AppTitle, user.DisplayName())
	fmt.Fprintln(w, Separator)
}

// FormatTask formats a task line.
// Format: "{ID:>4}  {STATUS:<11}  {PRIORITY:<6}  {TITLE}\n"
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %-11s  %-6s  %s\n",
		task.ID,
		orDash(task.Status),
		orDash(task.Priority),
		normalizeTitle(task.Title))
}

// FormatTaskDetail prints every attribute of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "#%d %s\n", task.ID, normalizeTitle(task.Title))
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "status:      %s\n", orDash(task.Status))
	fmt.Fprintf(w, "priority:    %s\n", orDash(task.Priority))
	fmt.Fprintf(w, "created:     %s\n", orDash(task.CreatedAt))
	fmt.Fprintf(w, "completed:   %s\n", orDash(task.CompletedAt))
	fmt.Fprintf(w, "attachments: %d\n", len(task.Attachments))
	if d := strings.TrimSpace(task.Description); d != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, d)
	}
}

// Notifier writes user-facing errors to a writer, one per line.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotifier creates a Notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Error implements service.Notifier.
func (n *Notifier) Error(msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "error: %s\n", msg)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
