package template

import (
	"testing"

	"github.com/leefowlercu/event-hooks/pkg/types"
)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars Lookuper
		want string
	}{
		{
			name: "single variable",
			tmpl: "{{featureId}} done",
			vars: Vars{"featureId": "F1"},
			want: "F1 done",
		},
		{
			name: "missing variable",
			tmpl: "{{missing}}",
			vars: Vars{},
			want: "",
		},
		{
			name: "repeated and mixed",
			tmpl: "{{a}}-{{b}}-{{a}}",
			vars: Vars{"a": "1", "b": "2"},
			want: "1-2-1",
		},
		{
			name: "no recursive expansion",
			tmpl: "value={{evil}}",
			vars: Vars{"evil": "{{secret}}", "secret": "leaked"},
			want: "value={{secret}}",
		},
		{
			name: "non identifier braces left alone",
			tmpl: "{{ featureId }} {{feature-id}} {featureId}",
			vars: Vars{"featureId": "F1"},
			want: "{{ featureId }} {{feature-id}} {featureId}",
		},
		{
			name: "triple braces",
			tmpl: "{{{featureId}}}",
			vars: Vars{"featureId": "F1"},
			want: "{F1}",
		},
		{
			name: "nil lookuper",
			tmpl: "x{{y}}z",
			vars: nil,
			want: "xz",
		},
		{
			name: "hook context absent field",
			tmpl: "[{{projectName}}] {{eventType}} {{error}}",
			vars: types.HookContext{ProjectName: types.Ptr("app"), EventType: types.TriggerFeatureSuccess},
			want: "[app] feature_success ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.tmpl, tt.vars); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}
