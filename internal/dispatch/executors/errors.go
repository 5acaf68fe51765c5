package executors

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies why a single hook action failed
type FailureKind string

const (
	FailureShellTimeout  FailureKind = "shell_timeout"
	FailureShellExit     FailureKind = "shell_exit"
	FailureShellSpawn    FailureKind = "shell_spawn"
	FailureHTTPTimeout   FailureKind = "http_timeout"
	FailureHTTPTransport FailureKind = "http_transport"
	FailureInvalidAction FailureKind = "invalid_action"
	FailureCanceled      FailureKind = "canceled"
	FailurePanic         FailureKind = "panic"
)

// ExecError is returned by the executors for every hard failure
type ExecError struct {
	Kind     FailureKind
	Hook     string        // Hook label
	Timeout  time.Duration // Set for timeout failures
	ExitCode int           // Set for shell_exit failures
	Err      error
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case FailureShellTimeout, FailureHTTPTimeout:
		return fmt.Sprintf("hook %q timed out after %s", e.Hook, e.Timeout)
	case FailureShellExit:
		return fmt.Sprintf("hook %q exited with code %d", e.Hook, e.ExitCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("hook %q failed (%s); %v", e.Hook, e.Kind, e.Err)
	}
	return fmt.Sprintf("hook %q failed (%s)", e.Hook, e.Kind)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a shell or HTTP timeout
func (e *ExecError) IsTimeout() bool {
	return e.Kind == FailureShellTimeout || e.Kind == FailureHTTPTimeout
}

// KindOf extracts the failure kind from err, or "" when err is not an ExecError
func KindOf(err error) FailureKind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return ""
}
