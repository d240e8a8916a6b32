package conversation

import (
	"context"
	"log/slog"

	"github.com/terminal-alpha-beta/hivebot/internal/entity"
)

// Dispatcher is the conversation machine instantiated over the generic
// actor runtime: one entity per UserID, driven by Transition and Schedule.
type Dispatcher = entity.Dispatcher[UserID, State, Action, *Env]

// NewDispatcher wires env's Config into Schedule and instantiates the
// runtime. logger may be nil, in which case entity falls back to
// slog.Default.
func NewDispatcher(ctx context.Context, env *Env, logger *slog.Logger) *Dispatcher {
	return entity.New[UserID, State, Action, *Env](
		ctx,
		env,
		Default,
		Transition,
		Schedule(env.Config),
		logger,
	)
}

// Sink is the narrow interface C6 ingress adapters depend on: enough to
// deliver an inbound chat message without importing the rest of the
// conversation package's internals.
type Sink interface {
	Act(id UserID, action Action)
}

var _ Sink = (*Dispatcher)(nil)
