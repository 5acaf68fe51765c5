package trigger

import (
	"strings"
	"time"

	"github.com/leefowlercu/event-hooks/pkg/types"
)

// TimestampFormat is ISO-8601 in UTC with millisecond precision
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// BuildContext derives the substitution context for one dispatch
func BuildContext(payload types.Payload, trigger types.TriggerKind, now time.Time) types.HookContext {
	hc := types.HookContext{
		FeatureID:   copyString(payload.FeatureID),
		FeatureName: copyString(payload.FeatureName),
		ProjectPath: copyString(payload.ProjectPath),
		ErrorType:   copyString(payload.ErrorType),
		Timestamp:   now.UTC().Format(TimestampFormat),
		EventType:   trigger,
	}

	if payload.ProjectPath != nil {
		hc.ProjectName = types.Ptr(DeriveProjectName(*payload.ProjectPath))
	}

	switch {
	case payload.Error != nil && *payload.Error != "":
		hc.Error = copyString(payload.Error)
	case payload.Message != nil:
		hc.Error = copyString(payload.Message)
	case payload.Error != nil:
		hc.Error = copyString(payload.Error)
	}

	return hc
}

// DeriveProjectName returns the last non-empty segment of a slash or
// backslash separated path, or the path itself when there is none
func DeriveProjectName(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
