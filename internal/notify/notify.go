// Package notify delivers escalation notices. Delivery is best-effort:
// adapter failures are logged, never returned to the escalating caller.
package notify

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/callboard/callboard/internal/models"
)

// Notice describes one escalated task for delivery.
type Notice struct {
	TaskID      uint
	TaskName    string
	ProjectName string
	PhaseName   string
	Reason      string
	Manual      bool
	EscalatedAt time.Time
}

// FromTask builds a Notice for an escalated task. The task's Project must be
// preloaded for the project name to appear.
func FromTask(task models.Task) Notice {
	n := Notice{
		TaskID:      task.ID,
		TaskName:    task.Name,
		ProjectName: task.Project.Name,
		PhaseName:   task.PhaseName,
		Manual:      task.IsManuallyEscalated,
	}
	if task.EscalationReason != nil {
		n.Reason = *task.EscalationReason
	}
	if task.EscalatedAt != nil {
		n.EscalatedAt = *task.EscalatedAt
	}
	return n
}

// Subject renders the one-line summary used by all adapters.
func (n Notice) Subject() string {
	kind := "overdue"
	if n.Manual {
		kind = "manually escalated"
	}
	return fmt.Sprintf("[%s] %s — %s", n.ProjectName, n.TaskName, kind)
}

// Body renders the detail text used by all adapters.
func (n Notice) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task #%d %q in phase %q escalated at %s.",
		n.TaskID, n.TaskName, n.PhaseName, n.EscalatedAt.Format(time.RFC3339))
	if n.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", n.Reason)
	}
	return b.String()
}

// Notifier delivers one escalation notice.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Fanout delivers a notice through every configured adapter. Failures are
// logged and do not stop the remaining adapters.
type Fanout []Notifier

// NotifyAll sends n through each adapter in order.
func (f Fanout) NotifyAll(ctx context.Context, n Notice) {
	for _, adapter := range f {
		if err := adapter.Notify(ctx, n); err != nil {
			log.Printf("notify: %T: %v", adapter, err)
		}
	}
}

// CommandNotifier runs a shell command template for each notice, e.g.
// "notify-send 'Callboard' '{{.Subject}}'".
type CommandNotifier struct {
	Command string
}

// Notify executes the command with notice placeholders substituted.
func (c *CommandNotifier) Notify(ctx context.Context, n Notice) error {
	if c.Command == "" {
		return nil
	}
	cmdStr := templateNotice(c.Command, n)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateNotice replaces placeholders in the command template with notice values.
func templateNotice(command string, n Notice) string {
	r := strings.NewReplacer(
		"{{.Subject}}", n.Subject(),
		"{{.Body}}", n.Body(),
		"{{.TaskName}}", n.TaskName,
		"{{.ProjectName}}", n.ProjectName,
		"{{.Reason}}", n.Reason,
	)
	return r.Replace(command)
}
