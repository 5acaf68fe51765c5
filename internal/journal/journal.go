// Package journal appends a record of every dispatch to a file.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/leefowlercu/event-hooks/internal/config"
	"github.com/leefowlercu/event-hooks/internal/dispatch"
)

// Journal writes one entry per dispatch report
type Journal struct {
	logFile string // Path to journal file (supports ~ expansion)
	format  string // "json" or "text"
	mu      sync.Mutex
}

var _ dispatch.Recorder = (*Journal)(nil)

// New creates a journal from configuration
func New(cfg config.JournalConfig) (*Journal, error) {
	format := cfg.Format
	if format == "" {
		format = "json" // Default to JSON
	}

	j := &Journal{
		logFile: cfg.File,
		format:  format,
	}

	if err := j.Validate(); err != nil {
		return nil, err
	}

	return j, nil
}

// Validate checks if the journal configuration is valid
func (j *Journal) Validate() error {
	if j.logFile == "" {
		return fmt.Errorf("journal file cannot be empty")
	}

	if j.format != "json" && j.format != "text" {
		return fmt.Errorf("format must be 'json' or 'text', got: %s", j.format)
	}

	return nil
}

// Path returns the configured journal path
func (j *Journal) Path() string {
	return j.logFile
}

// Record appends the report to the journal file
func (j *Journal) Record(ctx context.Context, report dispatch.Report) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to record dispatch; %w", err)
	}

	logPath, err := config.ExpandPath(j.logFile)
	if err != nil {
		return err
	}

	var content string
	switch j.format {
	case "json":
		content, err = formatJSON(report)
	case "text":
		content = formatText(report)
	default:
		err = fmt.Errorf("unsupported format: %s", j.format)
	}
	if err != nil {
		return fmt.Errorf("failed to format journal entry; %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory; %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file; %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(content + "\n"); err != nil {
		return fmt.Errorf("failed to write journal entry; %w", err)
	}

	return nil
}

type jsonEntry struct {
	Timestamp   string       `json:"timestamp"`
	EventType   string       `json:"event_type"`
	Trigger     string       `json:"trigger"`
	HookCount   int          `json:"hook_count"`
	FailedCount int          `json:"failed_count"`
	DurationMS  int64        `json:"duration_ms"`
	Results     []jsonResult `json:"results"`
}

type jsonResult struct {
	HookID     string `json:"hook_id"`
	Hook       string `json:"hook"`
	Action     string `json:"action,omitempty"`
	Success    bool   `json:"success"`
	Warning    bool   `json:"warning,omitempty"`
	Failure    string `json:"failure,omitempty"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func formatJSON(report dispatch.Report) (string, error) {
	entry := jsonEntry{
		Timestamp:   report.Timestamp.UTC().Format(time.RFC3339),
		EventType:   report.EventType,
		Trigger:     report.Trigger.String(),
		HookCount:   len(report.Results),
		FailedCount: report.Failed(),
		DurationMS:  report.Duration.Milliseconds(),
		Results:     make([]jsonResult, 0, len(report.Results)),
	}

	for _, result := range report.Results {
		entry.Results = append(entry.Results, jsonResult{
			HookID:     result.HookID,
			Hook:       result.Label,
			Action:     string(result.ActionKind),
			Success:    result.Success,
			Warning:    result.Warning,
			Failure:    string(result.Failure),
			Message:    result.Message,
			StatusCode: result.StatusCode,
			DurationMS: result.Duration.Milliseconds(),
		})
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON; %w", err)
	}

	return string(data), nil
}

func formatText(report dispatch.Report) string {
	var sb strings.Builder

	timestamp := report.Timestamp.Format("2006-01-02 15:04:05")
	sb.WriteString(fmt.Sprintf("[%s] Event: %s | Trigger: %s | Hooks: %d | Failed: %d",
		timestamp, report.EventType, report.Trigger, len(report.Results), report.Failed()))

	for _, result := range report.Results {
		sb.WriteString("\n  - [")
		switch {
		case !result.Success:
			sb.WriteString("FAIL")
		case result.Warning:
			sb.WriteString("WARN")
		default:
			sb.WriteString("OK")
		}
		sb.WriteString("] ")
		sb.WriteString(result.Label)

		if result.ActionKind != "" {
			sb.WriteString(" (")
			sb.WriteString(string(result.ActionKind))
			sb.WriteString(")")
		}

		if result.Message != "" {
			sb.WriteString(": ")
			sb.WriteString(result.Message)
		}
	}

	return sb.String()
}
