package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// machines holds the looplab/fsm event descriptions of every track, built
// once from domain.Transitions. Transitions sharing an event and destination
// are folded into a single EventDesc with several sources (e.g. employ from
// "unemployed" and "released").
var machines = buildMachines()

func buildMachines() map[domain.Track][]loopfsm.EventDesc {
	type key struct {
		track domain.Track
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.Transitions {
		k := key{track: t.Track, event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make(map[domain.Track][]loopfsm.EventDesc)
	for _, k := range order {
		out[k.track] = append(out[k.track], loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// looplab/fsm machines are stateful, so a short-lived machine is created per
// Apply call, initialized with the track's current state.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks whether event is valid from current on the given track and
// returns the destination state. It returns a *domain.TransitionError when
// the transition is not allowed.
func (v *Validator) Apply(ctx context.Context, track domain.Track, current domain.Status, event domain.Event) (domain.Status, error) {
	events, ok := machines[track]
	if !ok {
		return "", &domain.TransitionError{Track: track, Event: event, Current: current}
	}

	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Track:   track,
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}
