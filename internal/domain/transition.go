package domain

import "time"

// Event names a lifecycle transition requested by a caller.
type Event string

const (
	EventEmploy     Event = "employ"
	EventRelease    Event = "release"
	EventInjure     Event = "injure"
	EventHeal       Event = "heal"
	EventSuspend    Event = "suspend"
	EventReinstate  Event = "reinstate"
	EventRetire     Event = "retire"
	EventUnretire   Event = "unretire"
	EventActivate   Event = "activate"
	EventDeactivate Event = "deactivate"

	// Membership changes are published alongside lifecycle events but have
	// no transition table entries.
	EventJoined Event = "joined"
	EventLeft   Event = "left"
)

// Action opens or closes the period behind a capability.
type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// Track is an independent state machine over one slice of an entity's history.
type Track string

const (
	TrackEmployment Track = "employment"
	TrackActivation Track = "activation"
	TrackInjury     Track = "injury"
	TrackSuspension Track = "suspension"
)

// Transition defines a valid state change on a track.
type Transition struct {
	Track Track
	Event Event
	Src   Status
	Dst   Status
}

// Transitions is the legality table consumed by the FSM adapter.
var Transitions = []Transition{
	{Track: TrackEmployment, Event: EventEmploy, Src: StatusUnemployed, Dst: StatusEmployed},
	{Track: TrackEmployment, Event: EventEmploy, Src: StatusReleased, Dst: StatusEmployed},
	{Track: TrackEmployment, Event: EventRelease, Src: StatusEmployed, Dst: StatusReleased},
	{Track: TrackEmployment, Event: EventRetire, Src: StatusEmployed, Dst: StatusRetired},
	{Track: TrackEmployment, Event: EventUnretire, Src: StatusRetired, Dst: StatusEmployed},

	{Track: TrackActivation, Event: EventActivate, Src: StatusUnactivated, Dst: StatusActive},
	{Track: TrackActivation, Event: EventActivate, Src: StatusInactive, Dst: StatusActive},
	{Track: TrackActivation, Event: EventDeactivate, Src: StatusActive, Dst: StatusInactive},
	{Track: TrackActivation, Event: EventRetire, Src: StatusActive, Dst: StatusRetired},
	{Track: TrackActivation, Event: EventUnretire, Src: StatusRetired, Dst: StatusActive},

	{Track: TrackInjury, Event: EventInjure, Src: StatusHealthy, Dst: StatusInjured},
	{Track: TrackInjury, Event: EventHeal, Src: StatusInjured, Dst: StatusHealthy},

	{Track: TrackSuspension, Event: EventSuspend, Src: StatusUnsuspended, Dst: StatusSuspended},
	{Track: TrackSuspension, Event: EventReinstate, Src: StatusSuspended, Dst: StatusUnsuspended},
}

type eventSpec struct {
	capability Capability
	action     Action
}

var eventSpecs = map[Event]eventSpec{
	EventEmploy:     {CapEmployable, ActionOpen},
	EventRelease:    {CapEmployable, ActionClose},
	EventInjure:     {CapInjurable, ActionOpen},
	EventHeal:       {CapInjurable, ActionClose},
	EventSuspend:    {CapSuspendable, ActionOpen},
	EventReinstate:  {CapSuspendable, ActionClose},
	EventRetire:     {CapRetirable, ActionOpen},
	EventUnretire:   {CapRetirable, ActionClose},
	EventActivate:   {CapActivatable, ActionOpen},
	EventDeactivate: {CapActivatable, ActionClose},
}

// Lifecycle reports whether e is a lifecycle transition.
func (e Event) Lifecycle() bool {
	_, ok := eventSpecs[e]
	return ok
}

// Capability returns the capability an event exercises.
func (e Event) Capability() Capability {
	return eventSpecs[e].capability
}

// Action returns whether the event opens or closes its capability's period.
func (e Event) Action() Action {
	return eventSpecs[e].action
}

// EventFor resolves the lifecycle event for a capability and action.
// Capabilities without periods (bookable, manageable, stable member) have none.
func EventFor(c Capability, a Action) (Event, bool) {
	for e, spec := range eventSpecs {
		if spec.capability == c && spec.action == a {
			return e, true
		}
	}
	return "", false
}

// TrackFor returns the track that event e moves for entities of type t.
func TrackFor(t EntityType, e Event) (Track, bool) {
	switch e.Capability() {
	case CapEmployable:
		return TrackEmployment, true
	case CapActivatable:
		return TrackActivation, true
	case CapInjurable:
		return TrackInjury, true
	case CapSuspendable:
		return TrackSuspension, true
	case CapRetirable:
		if TenureKind(t) == KindActivation {
			return TrackActivation, true
		}
		return TrackEmployment, true
	}
	return "", false
}

// TargetState returns the state event e leads to on the given track.
func TargetState(track Track, e Event) (Status, bool) {
	for _, tr := range Transitions {
		if tr.Track == track && tr.Event == e {
			return tr.Dst, true
		}
	}
	return "", false
}

// TrackState computes the current state of a track at instant at.
func TrackState(track Track, t EntityType, h History, at time.Time) Status {
	switch track {
	case TrackInjury:
		if IsInjured(h, at) {
			return StatusInjured
		}
		return StatusHealthy
	case TrackSuspension:
		if IsSuspended(h, at) {
			return StatusSuspended
		}
		return StatusUnsuspended
	}
	return DeriveStatus(t, h, at)
}

// Future reports whether s is a scheduled, not yet started, tenure.
func (s Status) Future() bool {
	return s == StatusFutureEmployment || s == StatusFutureActivation
}

// WritesFor returns the period writes that apply event e to an entity of type t.
func WritesFor(t EntityType, e Event) []Write {
	tenure := TenureKind(t)
	switch e {
	case EventEmploy:
		return []Write{{Op: OpOpen, Kind: KindEmployment}}
	case EventRelease:
		return []Write{{Op: OpClose, Kind: KindEmployment}}
	case EventInjure:
		return []Write{{Op: OpOpen, Kind: KindInjury}}
	case EventHeal:
		return []Write{{Op: OpClose, Kind: KindInjury}}
	case EventSuspend:
		return []Write{{Op: OpOpen, Kind: KindSuspension}}
	case EventReinstate:
		return []Write{{Op: OpClose, Kind: KindSuspension}}
	case EventActivate:
		return []Write{{Op: OpOpen, Kind: KindActivation}}
	case EventDeactivate:
		return []Write{{Op: OpClose, Kind: KindActivation}}
	case EventRetire:
		return []Write{{Op: OpClose, Kind: tenure}, {Op: OpOpen, Kind: KindRetirement}}
	case EventUnretire:
		return []Write{{Op: OpClose, Kind: KindRetirement}, {Op: OpOpen, Kind: tenure}}
	}
	return nil
}
