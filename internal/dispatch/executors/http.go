package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leefowlercu/event-hooks/internal/template"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// maxDrainBytes is how much of a response body is read before closing it
const maxDrainBytes = 64 * 1024

// HTTPOutcome describes a webhook request that reached the server
type HTTPOutcome struct {
	Method     types.HTTPMethod // Effective method
	URL        string           // Rendered URL
	StatusCode int              // Response status
	Duration   time.Duration    // Round trip time
}

// OK reports whether the response status was 2xx
func (o HTTPOutcome) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// defaultBody is sent by non-GET actions without a body template
type defaultBody struct {
	EventType   types.TriggerKind `json:"eventType"`
	Timestamp   string            `json:"timestamp"`
	FeatureID   *string           `json:"featureId,omitempty"`
	ProjectPath *string           `json:"projectPath,omitempty"`
	ProjectName *string           `json:"projectName,omitempty"`
	Error       *string           `json:"error,omitempty"`
}

// HTTPExecutor sends webhook requests for HTTP actions
type HTTPExecutor struct {
	client  *http.Client
	logger  zerolog.Logger
	timeout time.Duration
}

// HTTPOption configures an HTTPExecutor
type HTTPOption func(*HTTPExecutor)

// WithTimeout replaces the request deadline. Production code keeps types.HTTPTimeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(e *HTTPExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewHTTPExecutor creates an HTTP executor; a nil client selects a default one
func NewHTTPExecutor(client *http.Client, logger zerolog.Logger, opts ...HTTPOption) *HTTPExecutor {
	if client == nil {
		client = &http.Client{}
	}

	e := &HTTPExecutor{
		client:  client,
		logger:  logger,
		timeout: types.HTTPTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run renders and sends the action's request. A non-2xx status is logged as
// a warning and returned without an error.
func (e *HTTPExecutor) Run(ctx context.Context, action types.HTTPAction, hc types.HookContext, label string) (HTTPOutcome, error) {
	url := strings.TrimSpace(template.Substitute(action.URL, hc))
	method := action.EffectiveMethod()
	outcome := HTTPOutcome{Method: method, URL: url}

	if url == "" {
		return outcome, &ExecError{Kind: FailureInvalidAction, Hook: label, Err: errors.New("url is empty")}
	}
	if !method.IsValid() {
		return outcome, &ExecError{Kind: FailureInvalidAction, Hook: label, Err: fmt.Errorf("unsupported method %q", method)}
	}

	body, err := e.buildBody(action, method, hc)
	if err != nil {
		return outcome, &ExecError{Kind: FailureInvalidAction, Hook: label, Err: err}
	}

	e.logger.Info().
		Str("hook", label).
		Str("method", string(method)).
		Str("url", url).
		Msg("executing http hook")

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(reqCtx, string(method), url, reader)
	if err != nil {
		return outcome, &ExecError{Kind: FailureInvalidAction, Hook: label, Err: fmt.Errorf("failed to build request; %w", err)}
	}

	request.Header.Set("Content-Type", "application/json")
	for key, value := range action.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		request.Header.Set(key, template.Substitute(value, hc))
	}

	startTime := time.Now()
	response, err := e.client.Do(request)
	outcome.Duration = time.Since(startTime)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return outcome, &ExecError{Kind: FailureCanceled, Hook: label, Err: ctx.Err()}
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			e.logger.Warn().Str("hook", label).Dur("timeout", e.timeout).Msg("http hook timed out")
			return outcome, &ExecError{Kind: FailureHTTPTimeout, Hook: label, Timeout: e.timeout, Err: err}
		default:
			return outcome, &ExecError{Kind: FailureHTTPTransport, Hook: label, Err: err}
		}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxDrainBytes))
		_ = response.Body.Close()
	}()

	outcome.StatusCode = response.StatusCode

	if !outcome.OK() {
		e.logger.Warn().
			Str("hook", label).
			Int("status", response.StatusCode).
			Msg("http hook received non-2xx status")
		return outcome, nil
	}

	e.logger.Info().
		Str("hook", label).
		Int("status", response.StatusCode).
		Dur("duration", outcome.Duration).
		Msg("http hook completed successfully")

	return outcome, nil
}

// buildBody returns nil for GET. Otherwise a non-empty body template is
// rendered and sent verbatim, and anything else gets the default JSON body.
func (e *HTTPExecutor) buildBody(action types.HTTPAction, method types.HTTPMethod, hc types.HookContext) ([]byte, error) {
	if method == types.MethodGet {
		return nil, nil
	}

	if action.Body != nil && *action.Body != "" {
		return []byte(template.Substitute(*action.Body, hc)), nil
	}

	data, err := json.Marshal(defaultBody{
		EventType:   hc.EventType,
		Timestamp:   hc.Timestamp,
		FeatureID:   hc.FeatureID,
		ProjectPath: hc.ProjectPath,
		ProjectName: hc.ProjectName,
		Error:       hc.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default body; %w", err)
	}

	return data, nil
}
