package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/event-hooks/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   types.Payload
		want      types.TriggerKind
		wantOK    bool
	}{
		{
			name:      "feature complete passing",
			eventType: EventFeatureComplete,
			payload:   types.Payload{FeatureID: types.Ptr("F1"), Passes: types.Ptr(true)},
			want:      types.TriggerFeatureSuccess,
			wantOK:    true,
		},
		{
			name:      "feature complete failing",
			eventType: EventFeatureComplete,
			payload:   types.Payload{FeatureID: types.Ptr("F1"), Passes: types.Ptr(false)},
			want:      types.TriggerFeatureError,
			wantOK:    true,
		},
		{
			name:      "feature complete without success flag",
			eventType: EventFeatureComplete,
			payload:   types.Payload{},
			want:      types.TriggerFeatureError,
			wantOK:    true,
		},
		{
			name:      "error scoped to feature",
			eventType: EventError,
			payload:   types.Payload{FeatureID: types.Ptr("F2"), Error: types.Ptr("boom")},
			want:      types.TriggerFeatureError,
			wantOK:    true,
		},
		{
			name:      "process level error",
			eventType: EventError,
			payload:   types.Payload{Error: types.Ptr("boom")},
			want:      types.TriggerAutoModeError,
			wantOK:    true,
		},
		{
			name:      "error with empty feature id",
			eventType: EventError,
			payload:   types.Payload{FeatureID: types.Ptr("")},
			want:      types.TriggerAutoModeError,
			wantOK:    true,
		},
		{
			name:      "error with blank feature id",
			eventType: EventError,
			payload:   types.Payload{FeatureID: types.Ptr(" ")},
			want:      types.TriggerFeatureError,
			wantOK:    true,
		},
		{
			name:      "idle",
			eventType: EventIdle,
			payload:   types.Payload{},
			want:      types.TriggerAutoModeComplete,
			wantOK:    true,
		},
		{
			name:      "unlisted event",
			eventType: "auto_mode_feature_start",
			payload:   types.Payload{FeatureID: types.Ptr("F1")},
			wantOK:    false,
		},
		{
			name:      "empty event type",
			eventType: "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.eventType, tt.payload)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.True(t, got.IsValid())
			}
		})
	}
}

func TestDeriveProjectName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/b/my-proj", "my-proj"},
		{`C:\a\b\proj2`, "proj2"},
		{"/a/b/trailing/", "trailing"},
		{"relative", "relative"},
		{"mixed/dir\\leaf", "leaf"},
		{"", ""},
		{"/", "/"},
		{`\\`, `\\`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DeriveProjectName(tt.path); got != tt.want {
				t.Errorf("DeriveProjectName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestBuildContext(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("CET", 3600))

	t.Run("copies present fields", func(t *testing.T) {
		payload := types.Payload{
			FeatureID:   types.Ptr("F1"),
			FeatureName: types.Ptr("Login page"),
			ProjectPath: types.Ptr("/home/dev/shop"),
			Error:       types.Ptr("tests failed"),
			ErrorType:   types.Ptr("verification"),
		}

		hc := BuildContext(payload, types.TriggerFeatureError, now)

		assert.Equal(t, "2026-03-04T04:06:07.890Z", hc.Timestamp)
		assert.Equal(t, types.TriggerFeatureError, hc.EventType)
		require.NotNil(t, hc.ProjectName)
		assert.Equal(t, "shop", *hc.ProjectName)
		assert.Equal(t, "tests failed", *hc.Error)
		assert.Equal(t, "verification", *hc.ErrorType)
		assert.Equal(t, "Login page", *hc.FeatureName)

		// The context owns its values
		*payload.FeatureID = "mutated"
		assert.Equal(t, "F1", *hc.FeatureID)
	})

	t.Run("absent fields stay absent", func(t *testing.T) {
		hc := BuildContext(types.Payload{}, types.TriggerAutoModeComplete, now)

		assert.Nil(t, hc.FeatureID)
		assert.Nil(t, hc.ProjectPath)
		assert.Nil(t, hc.ProjectName)
		assert.Nil(t, hc.Error)
		assert.NotEmpty(t, hc.Timestamp)
	})

	t.Run("message is the error fallback", func(t *testing.T) {
		hc := BuildContext(types.Payload{Message: types.Ptr("rate limited")}, types.TriggerAutoModeError, now)
		require.NotNil(t, hc.Error)
		assert.Equal(t, "rate limited", *hc.Error)

		hc = BuildContext(types.Payload{Error: types.Ptr(""), Message: types.Ptr("rate limited")}, types.TriggerAutoModeError, now)
		assert.Equal(t, "rate limited", *hc.Error)

		hc = BuildContext(types.Payload{Error: types.Ptr("")}, types.TriggerAutoModeError, now)
		require.NotNil(t, hc.Error)
		assert.Equal(t, "", *hc.Error)
	})
}

func TestSampleEvent(t *testing.T) {
	for _, kind := range types.AllTriggerKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			eventType, payload := SampleEvent(kind, "/work/demo")

			got, ok := Classify(eventType, payload)
			if !ok {
				t.Fatalf("sample event %q was not classified", eventType)
			}
			if got != kind {
				t.Errorf("Classify(SampleEvent(%s)) = %s", kind, got)
			}
			if payload.Type == nil || *payload.Type != eventType {
				t.Errorf("payload type does not match event type %q", eventType)
			}
		})
	}
}
