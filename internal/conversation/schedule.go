package conversation

import (
	"github.com/terminal-alpha-beta/hivebot/internal/entity"
)

type scheduled = entity.Scheduled[Action]

// Schedule implements spec.md §4.4's edge-triggered timer table as
// entity.Schedule[State, Action]. Every Running*/Awaiting*/Sending/
// CommittingToMemory state rearms the watchdog (ForceReset); Idle only
// arms the idle timeout, and only when there's a recent conversation to
// time out.
func Schedule(cfg Config) func(State) []scheduled {
	return func(state State) []scheduled {
		switch state.Kind {
		case StateIdle:
			if state.Recent == nil {
				return nil
			}
			return []scheduled{{
				At:     state.Recent.LastActivity.Add(cfg.IdleTimeout),
				Action: Action{Kind: ActionTimeout},
			}}

		case StateAwaitingLLMDecision, StateSendingMessage, StateRunningTool,
			StateRunningInternalFunction, StateCommittingToMemory:
			return []scheduled{{
				At:     state.LastTransition.Add(cfg.WatchdogTimeout),
				Action: Action{Kind: ActionForceReset},
			}}

		default:
			return nil
		}
	}
}
