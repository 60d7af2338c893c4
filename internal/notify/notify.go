// Package notify reports failed builds.
package notify

import (
	"context"
	"fmt"
	"strings"

	"cinderella/internal/core"
)

// Notifier delivers a message about a build.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Nop discards every message. It is used when no mail server is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// FailureMessage renders the subject and body sent for a failed run of
// project. The status line is left out when the failing command never ran
// to completion; its output then carries the reason.
func FailureMessage(project string, failed core.Failed) (subject, body string) {
	step := failed.FailingStep()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Build failed: %s\n", step.Command)
	switch {
	case step.ExitCode != nil:
		fmt.Fprintf(&sb, "Exited with status code: %d\n", *step.ExitCode)
	case step.Signaled:
		sb.WriteString("Process terminated by signal\n")
	}
	sb.WriteString("\n")
	for _, s := range failed.Steps {
		sb.WriteString(s.Output)
	}

	return "Build failed: " + project, sb.String()
}
