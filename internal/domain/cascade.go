package domain

import "time"

// WriteOp is a single store mutation within a plan step.
type WriteOp string

const (
	OpOpen  WriteOp = "open"
	OpClose WriteOp = "close"
	OpLeave WriteOp = "leave"
	OpJoin  WriteOp = "join"
)

// Write describes one mutation. Kind applies to period writes, Membership to
// membership writes.
type Write struct {
	Op         WriteOp
	Kind       PeriodKind
	Membership Membership
}

// Step is one entry of a cascade plan: an optional validated lifecycle event
// on Entity followed by its writes, all at the plan's effective date.
type Step struct {
	Entity   Entity
	Event    Event
	Validate bool
	Writes   []Write
}

// Plan is the explicit, ordered list of steps computed before anything is written.
type Plan struct {
	Root          Entity
	Event         Event
	EffectiveDate time.Time
	Steps         []Step
}

// Touches reports whether the plan already includes a step for entity id.
func (p Plan) Touches(id string) bool {
	for _, s := range p.Steps {
		if s.Entity.ID == id {
			return true
		}
	}
	return false
}

// AppliedStep records what a step wrote.
type AppliedStep struct {
	Entity      Entity
	Event       Event
	Periods     []Period
	Memberships []Membership
}

// CascadeReport is returned after a plan commits.
type CascadeReport struct {
	Root          Entity
	Event         Event
	EffectiveDate time.Time
	Steps         []AppliedStep
}

// RootPeriod returns the last period written for the root entity.
func (r CascadeReport) RootPeriod() (Period, bool) {
	var (
		out   Period
		found bool
	)
	for _, s := range r.Steps {
		if s.Entity.ID != r.Root.ID {
			continue
		}
		for _, p := range s.Periods {
			out, found = p, true
		}
	}
	return out, found
}

// Change is a committed fact handed to the change publisher.
type Change struct {
	Event         Event
	EntityID      string
	EntityType    EntityType
	EffectiveDate time.Time
	RelatedID     string
}

// Changes flattens a report into publishable changes.
func (r CascadeReport) Changes() []Change {
	var out []Change
	for _, s := range r.Steps {
		out = append(out, s.Changes(r.EffectiveDate)...)
	}
	return out
}

// Changes returns the publishable changes of one applied step.
func (s AppliedStep) Changes(at time.Time) []Change {
	var out []Change
	if s.Event != "" {
		out = append(out, Change{
			Event:         s.Event,
			EntityID:      s.Entity.ID,
			EntityType:    s.Entity.Type,
			EffectiveDate: at,
		})
	}
	for _, m := range s.Memberships {
		event := EventJoined
		if !m.Current() {
			event = EventLeft
		}
		out = append(out, Change{
			Event:         event,
			EntityID:      m.MemberID,
			EntityType:    m.MemberType,
			EffectiveDate: at,
			RelatedID:     m.CompositeID,
		})
	}
	return out
}
