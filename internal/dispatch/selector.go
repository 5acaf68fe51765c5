package dispatch

import (
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// Select returns the enabled hooks bound to trigger, in their stored order
func Select(hooks []types.Hook, trigger types.TriggerKind) []types.Hook {
	selected := make([]types.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if matches(hook, trigger) {
			selected = append(selected, hook)
		}
	}
	return selected
}

func matches(hook types.Hook, trigger types.TriggerKind) bool {
	if !hook.Enabled {
		return false
	}
	return hook.Trigger == trigger
}
