package cmd

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func stateLabel(s extension.State) string {
	switch s {
	case extension.StateOK:
		return okStyle.Render(string(s))
	case extension.StateWarning:
		return warningStyle.Render(string(s))
	case extension.StateError:
		return errorStyle.Render(string(s))
	default:
		return faintStyle.Render(string(s))
	}
}

// diagnostic returns the message behind an extension's state
func diagnostic(e *extension.Extension) string {
	switch e.State() {
	case extension.StateError:
		return e.LastError
	case extension.StateWarning:
		return e.LastWarning
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func lastChecked(e *extension.Extension) string {
	return e.LastCheckedPhrase(time.Now())
}
