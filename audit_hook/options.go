package audithook

import (
	"log/slog"
	"strings"
)

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to actions. Without it every action
// is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithResources audits only the actions of the named resources, e.g.
// WithResources(ResourceStream) skips protocol and delegation actions.
func WithResources(resources ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool)
		for _, action := range allActions() {
			for _, r := range resources {
				if strings.HasPrefix(action, r+".") {
					e.enabled[action] = true
				}
			}
		}
	}
}

// WithDisabledActions audits everything except actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool)
			for _, action := range allActions() {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

func allActions() []string {
	return []string{
		ActionProtocolInitialized,
		ActionStreamCreated,
		ActionStreamDeposited,
		ActionStreamWithdrawn,
		ActionStreamPaused,
		ActionStreamResumed,
		ActionStreamCanceled,
		ActionDelegationGranted,
		ActionDelegationRevoked,
	}
}
