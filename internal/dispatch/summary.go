package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
)

// Summary renders a report as a short human readable block
func Summary(report Report) string {
	if report.Skipped {
		return fmt.Sprintf("Event %q produces no hooks", report.EventType)
	}
	if len(report.Results) == 0 {
		return fmt.Sprintf("No hooks configured for trigger %s", report.Trigger)
	}

	var sb strings.Builder

	sb.WriteString("Executed ")
	sb.WriteString(strconv.Itoa(len(report.Results)))
	if len(report.Results) == 1 {
		sb.WriteString(" hook for ")
	} else {
		sb.WriteString(" hooks for ")
	}
	sb.WriteString(report.Trigger.String())
	sb.WriteString(" (")
	sb.WriteString(formatDuration(report.Duration))
	sb.WriteString(" total, ")
	sb.WriteString(strconv.Itoa(report.Failed()))
	sb.WriteString(" failed):")

	for _, result := range report.Results {
		sb.WriteString("\n  ")

		switch {
		case !result.Success:
			sb.WriteString(failureColor.Sprint("✗"))
		case result.Warning:
			sb.WriteString(warningColor.Sprint("⚠"))
		default:
			sb.WriteString(successColor.Sprint("✓"))
		}
		sb.WriteString(" ")

		sb.WriteString(result.Label)
		sb.WriteString(": ")
		sb.WriteString(result.Message)

		sb.WriteString(" (")
		sb.WriteString(formatDuration(result.Duration))
		sb.WriteString(")")
	}

	return sb.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()

	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
