// Package entity implements a generic per-key actor runtime: an unbounded
// set of addressable entities, each multiplexed onto its own goroutine and
// driven by an independently evolving state machine.
//
// An entity's state machine is supplied at construction as a pair of pure
// functions: Transition, which consumes an action and returns the next
// state plus zero or more external operations, and Schedule, which derives
// the set of timers that should be armed for a given state. Neither
// function touches the runtime directly; the dispatcher and entity
// goroutines own all concurrency.
package entity

import (
	"context"
	"log/slog"
	"time"
)

// ExternalOp is an asynchronous side effect spawned by a Transition. Its
// result re-enters the owning entity as another Action once it completes.
type ExternalOp[Action any] func(ctx context.Context) Action

// TransitionResult is what a Transition returns: the entity's next state
// plus any external operations to spawn, in the order they should run.
type TransitionResult[State, Action any] struct {
	State State
	Ops   []ExternalOp[Action]
}

// Transition is a pure function from (state, action) to a TransitionResult.
// Returning a non-nil error drops the action: the entity's state, spawned
// operations, and armed timers are all left untouched. This is how a stale
// result (e.g. a tool completion arriving after ForceReset) is discarded.
type Transition[Id, State, Action, Env any] func(env Env, id Id, state State, action Action) (TransitionResult[State, Action], error)

// Scheduled is a single timer: Action fires at (or shortly after) At.
type Scheduled[Action any] struct {
	At     time.Time
	Action Action
}

// Schedule derives the timers that should be armed for a state. It is
// consulted after every accepted transition and the returned set is armed
// for the new state. Timers armed for earlier states are not cancelled:
// they still fire, and their actions reach the transition function like
// any other action.
type Schedule[State, Action any] func(state State) []Scheduled[Action]

// entityInboxCapacity is the bounded channel capacity per entity. A full
// inbox is the system's only backpressure signal (spec.md §5).
const entityInboxCapacity = 8

// entity owns one addressable state machine: its current state, its
// inbox, and the set of timers armed against that state.
type entity[Id, State, Action, Env any] struct {
	id        Id
	env       Env
	inbox     chan Action
	transition Transition[Id, State, Action, Env]
	schedule  Schedule[State, Action]
	dispatch  func(Id, Action)
	logger    *slog.Logger

	state State
}

func newEntity[Id, State, Action, Env any](
	ctx context.Context,
	id Id,
	env Env,
	initial State,
	transition Transition[Id, State, Action, Env],
	schedule Schedule[State, Action],
	dispatch func(Id, Action),
	logger *slog.Logger,
) *entity[Id, State, Action, Env] {
	e := &entity[Id, State, Action, Env]{
		id:         id,
		env:        env,
		inbox:      make(chan Action, entityInboxCapacity),
		transition: transition,
		schedule:   schedule,
		dispatch:   dispatch,
		logger:     logger,
		state:      initial,
	}
	go e.run(ctx)
	return e
}

// run consumes actions strictly in submission order for this entity.
// Every accepted transition arms the timers its new state's schedule
// asks for; a rejected one arms nothing.
func (e *entity[Id, State, Action, Env]) run(ctx context.Context) {
	e.armTimers(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case action, ok := <-e.inbox:
			if !ok {
				return
			}
			if e.handle(ctx, action) {
				e.armTimers(ctx)
			}
		}
	}
}

// handle applies action and reports whether the transition accepted it.
func (e *entity[Id, State, Action, Env]) handle(ctx context.Context, action Action) bool {
	result, err := e.transition(e.env, e.id, e.state, action)
	if err != nil {
		// A rejected transition (stale result, invalid state/action pair)
		// changes nothing: not the state, not timers, not externals.
		e.logger.Debug("transition rejected", "error", err)
		return false
	}
	e.state = result.State
	for _, op := range result.Ops {
		e.spawnExternal(ctx, op)
	}
	return true
}

// spawnExternal detaches op onto its own goroutine and feeds its eventual
// result back into this entity's own inbox via dispatch. External
// operations are never cancelled on state change (spec.md §4.1); the
// transition function is responsible for recognizing stale results.
func (e *entity[Id, State, Action, Env]) spawnExternal(ctx context.Context, op ExternalOp[Action]) {
	id := e.id
	dispatch := e.dispatch
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("external operation panicked", "panic", r)
			}
		}()
		action := op(ctx)
		dispatch(id, action)
	}()
}

// armTimers spawns one goroutine per timer in the schedule derived from
// the entity's current state. It does NOT cancel timers armed by a
// previous transition: arbitrary-goroutine cancellation isn't portable,
// so a stale timer is simply allowed to fire. Its action reaches the
// transition function like any other; if the state has since moved on,
// the transition is expected to recognize the mismatch and reject it.
func (e *entity[Id, State, Action, Env]) armTimers(ctx context.Context) {
	for _, s := range e.schedule(e.state) {
		scheduled := s
		go func() {
			d := time.Until(scheduled.At)
			if d < 0 {
				d = 0
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				e.dispatch(e.id, scheduled.Action)
			}
		}()
	}
}
