package entity

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher owns the mapping from Id to a live entity and is the only
// way actions enter the runtime. Act is non-blocking from the caller's
// perspective up to the entity's inbox capacity; actions submitted for
// the same Id are delivered to that entity in submission order, with no
// ordering guarantee across distinct ids.
type Dispatcher[Id comparable, State, Action, Env any] struct {
	ctx        context.Context
	env        Env
	initial    func() State
	transition Transition[Id, State, Action, Env]
	schedule   Schedule[State, Action]
	logger     *slog.Logger

	mu       sync.Mutex
	entities map[Id]*entity[Id, State, Action, Env]
}

// New constructs a Dispatcher. initial produces the default state for a
// newly observed entity id (spec.md §3: entities are created lazily on
// first action and default to the machine's zero/idle state).
func New[Id comparable, State, Action, Env any](
	ctx context.Context,
	env Env,
	initial func() State,
	transition Transition[Id, State, Action, Env],
	schedule Schedule[State, Action],
	logger *slog.Logger,
) *Dispatcher[Id, State, Action, Env] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher[Id, State, Action, Env]{
		ctx:        ctx,
		env:        env,
		initial:    initial,
		transition: transition,
		schedule:   schedule,
		logger:     logger,
		entities:   make(map[Id]*entity[Id, State, Action, Env]),
	}
}

// Act submits action for delivery to the entity owning id, creating that
// entity lazily if this is the first action observed for it. It may
// block if the entity's inbox is at capacity — that backpressure is
// intentional (spec.md §5).
func (d *Dispatcher[Id, State, Action, Env]) Act(id Id, action Action) {
	e := d.entityFor(id)
	select {
	case e.inbox <- action:
	case <-d.ctx.Done():
	}
}

func (d *Dispatcher[Id, State, Action, Env]) entityFor(id Id) *entity[Id, State, Action, Env] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entities[id]; ok {
		return e
	}
	e := newEntity(d.ctx, id, d.env, d.initial(), d.transition, d.schedule, d.Act, d.logger.With("entity", id))
	d.entities[id] = e
	return e
}

// Count reports the number of entities created so far. Exposed for tests
// and diagnostics only.
func (d *Dispatcher[Id, State, Action, Env]) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entities)
}
