package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/leefowlercu/event-hooks/internal/dispatch/executors"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

func withoutColor(t *testing.T) {
	t.Helper()
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })
}

func TestSummary_Mixed(t *testing.T) {
	withoutColor(t)

	report := Report{
		EventType: "auto_mode_feature_complete",
		Trigger:   types.TriggerFeatureSuccess,
		Duration:  2300 * time.Millisecond,
		Results: []HookResult{
			{Label: "Notify", Success: true, Message: "command exited with status 0", Duration: 12 * time.Millisecond},
			{Label: "Webhook", Success: true, Warning: true, Message: "POST https://hooks.test returned 500", Duration: 1200 * time.Millisecond},
			{Label: "Slow", Failure: executors.FailureShellTimeout, Message: `hook "Slow" timed out after 100ms`, Duration: 100 * time.Millisecond},
		},
	}

	summary := Summary(report)

	if !strings.Contains(summary, "Executed 3 hooks for feature_success (2.3s total, 1 failed):") {
		t.Errorf("unexpected header in summary: %s", summary)
	}
	if !strings.Contains(summary, "✓ Notify: command exited with status 0 (12ms)") {
		t.Errorf("missing success line: %s", summary)
	}
	if !strings.Contains(summary, "⚠ Webhook: POST https://hooks.test returned 500 (1.2s)") {
		t.Errorf("missing warning line: %s", summary)
	}
	if !strings.Contains(summary, `✗ Slow: hook "Slow" timed out after 100ms (100ms)`) {
		t.Errorf("missing failure line: %s", summary)
	}
}

func TestSummary_SingleHook(t *testing.T) {
	withoutColor(t)

	summary := Summary(Report{
		Trigger: types.TriggerAutoModeComplete,
		Results: []HookResult{{Label: "bell", Success: true, Message: "ok"}},
	})

	if !strings.Contains(summary, "Executed 1 hook for auto_mode_complete (0ms total, 0 failed):") {
		t.Errorf("unexpected header in summary: %s", summary)
	}
}

func TestSummary_NothingRan(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{"skipped", Report{EventType: "auto_mode_started", Skipped: true}, `Event "auto_mode_started" produces no hooks`},
		{"no hooks", Report{Trigger: types.TriggerAutoModeError}, "No hooks configured for trigger auto_mode_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.report); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.duration); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
		}
	}
}
