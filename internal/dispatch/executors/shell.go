package executors

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leefowlercu/event-hooks/internal/template"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// waitDelay bounds how long Run waits for output pipes after the shell exits
// or is killed. Grandchildren that keep the pipes open are abandoned after it.
const waitDelay = time.Second

// ShellOutcome describes a shell action that exited with status zero
type ShellOutcome struct {
	Command   string        // Rendered command line
	Stdout    string        // Captured stdout, possibly truncated
	Stderr    string        // Captured stderr, possibly truncated
	Truncated bool          // Output exceeded MaxOutputBytes
	Duration  time.Duration // Wall clock time of the process
}

// ShellExecutor runs shell actions. Commands are handed to the host shell as
// a single command line so pipes and redirections in templates keep working;
// hook commands are operator configured and trusted.
type ShellExecutor struct {
	logger    zerolog.Logger
	shell     []string
	maxOutput int
}

// NewShellExecutor creates a shell executor using the platform shell
func NewShellExecutor(logger zerolog.Logger) *ShellExecutor {
	return &ShellExecutor{
		logger:    logger,
		shell:     shellCommand(),
		maxOutput: MaxOutputBytes,
	}
}

// Run renders and executes the action's command
func (e *ShellExecutor) Run(ctx context.Context, action types.ShellAction, hc types.HookContext, label string) (ShellOutcome, error) {
	command := template.Substitute(action.Command, hc)
	outcome := ShellOutcome{Command: command}

	if strings.TrimSpace(command) == "" {
		return outcome, &ExecError{Kind: FailureInvalidAction, Hook: label, Err: errors.New("command is empty")}
	}

	timeout := action.EffectiveTimeout()

	e.logger.Info().
		Str("hook", label).
		Str("command", command).
		Dur("timeout", timeout).
		Msg("executing shell hook")

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, e.shell[1:]...), command)
	cmd := exec.CommandContext(runCtx, e.shell[0], args...)
	configureProcess(cmd)
	cmd.WaitDelay = waitDelay

	capture := newOutputCapture(e.maxOutput)
	cmd.Stdout = capture.Stdout()
	cmd.Stderr = capture.Stderr()

	startTime := time.Now()
	err := cmd.Run()
	outcome.Duration = time.Since(startTime)
	outcome.Stdout, outcome.Stderr, outcome.Truncated = capture.result()

	if err != nil && errors.Is(err, exec.ErrWaitDelay) && runCtx.Err() == nil {
		// The shell exited cleanly but a background child kept the pipes open
		e.logger.Warn().Str("hook", label).Msg("shell hook left output pipes open after exit")
		err = nil
	}

	if err != nil {
		return outcome, e.classify(ctx, runCtx, err, label, timeout)
	}

	if outcome.Truncated {
		e.logger.Warn().Str("hook", label).Int("limit_bytes", e.maxOutput).Msg("shell hook output truncated")
	}
	if out := strings.TrimSpace(outcome.Stdout); out != "" {
		e.logger.Debug().Str("hook", label).Str("stdout", out).Msg("shell hook stdout")
	}
	if errOut := strings.TrimSpace(outcome.Stderr); errOut != "" {
		e.logger.Warn().Str("hook", label).Str("stderr", errOut).Msg("shell hook stderr")
	}

	e.logger.Info().
		Str("hook", label).
		Dur("duration", outcome.Duration).
		Msg("shell hook completed successfully")

	return outcome, nil
}

func (e *ShellExecutor) classify(parent, runCtx context.Context, err error, label string, timeout time.Duration) error {
	switch {
	case parent.Err() != nil:
		return &ExecError{Kind: FailureCanceled, Hook: label, Err: parent.Err()}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		e.logger.Warn().Str("hook", label).Dur("timeout", timeout).Msg("shell hook timed out")
		return &ExecError{Kind: FailureShellTimeout, Hook: label, Timeout: timeout, Err: context.DeadlineExceeded}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{Kind: FailureShellExit, Hook: label, ExitCode: exitErr.ExitCode(), Err: err}
	}

	return &ExecError{Kind: FailureShellSpawn, Hook: label, Err: err}
}
