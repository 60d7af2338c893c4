package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cinderella/internal/build"
	"cinderella/internal/core"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderReport summarizes a build for the terminal: one line per step and a
// final verdict.
func renderReport(report build.Report) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s @ %s", report.Project, report.Ref)))
	sb.WriteString("\n")

	var steps []core.StepResult
	switch result := report.Result.(type) {
	case core.Succeeded:
		steps = result.Steps
	case core.Failed:
		steps = result.Steps
	default:
		sb.WriteString(mutedStyle.Render("no pipeline was executed"))
		return sb.String()
	}

	for _, step := range steps {
		if step.Failed() {
			detail := "did not run"
			switch {
			case step.ExitCode != nil:
				detail = fmt.Sprintf("exit %d", *step.ExitCode)
			case step.Signaled:
				detail = "terminated by signal"
			}
			sb.WriteString(failureStyle.Render("✗ "+step.Command) + " " + mutedStyle.Render(detail))
		} else {
			sb.WriteString(successStyle.Render("✓ " + step.Command))
		}
		sb.WriteString("\n")
	}

	if report.Status() == "failure" {
		sb.WriteString(failureStyle.Render("build failed"))
	} else {
		sb.WriteString(successStyle.Render(fmt.Sprintf("build succeeded (%d steps)", len(steps))))
	}
	if report.LogPath != "" {
		sb.WriteString("\n" + mutedStyle.Render("log: "+report.LogPath))
	}
	return sb.String()
}
