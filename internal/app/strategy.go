package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Subject is the entity a strategy validates, with its period history.
type Subject struct {
	Entity  domain.Entity
	History domain.History
}

// Strategy validates lifecycle events of one capability for one entity type.
type Strategy interface {
	Validate(ctx context.Context, subject Subject, event domain.Event, at time.Time) error
}

type strategyKey struct {
	entityType domain.EntityType
	capability domain.Capability
}

// rule is an extra precondition checked before the state machine.
type rule func(ctx context.Context, subject Subject, event domain.Event, at time.Time) error

// capabilityStrategy checks an event against the track's state machine after
// its extra rules pass.
type capabilityStrategy struct {
	capability domain.Capability
	validator  domain.TransitionValidator
	rules      map[domain.Event][]rule
}

func (s *capabilityStrategy) Validate(ctx context.Context, subject Subject, event domain.Event, at time.Time) error {
	entityType := subject.Entity.Type

	track, ok := domain.TrackFor(entityType, event)
	if !ok || event.Capability() != s.capability {
		return illegal(subject, event, domain.ReasonIllegalForEntityType, "", "")
	}

	current := domain.TrackState(track, entityType, subject.History, at)

	for _, r := range s.rules[event] {
		if err := r(ctx, subject, event, at); err != nil {
			return err
		}
	}

	if _, err := s.validator.Apply(ctx, track, current, event); err != nil {
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			return illegal(subject, event, rejection(track, current, event), current, "")
		}
		return err
	}

	return nil
}

// rejection classifies why the state machine refused event from current.
func rejection(track domain.Track, current domain.Status, event domain.Event) domain.Reason {
	if dst, ok := domain.TargetState(track, event); ok && dst == current && event != domain.EventUnretire {
		return domain.ReasonAlreadyInStatus
	}
	switch {
	case current == domain.StatusRetired:
		return domain.ReasonRetired
	case current.Future():
		return domain.ReasonHasFutureScheduledTransition
	}
	return domain.ReasonPrerequisiteNotMet
}

// newStrategies builds one strategy per (entity type, capability) pair that
// has lifecycle events.
func newStrategies(e *Engine) map[strategyKey]Strategy {
	shared := map[domain.Event][]rule{
		domain.EventInjure:  {requireEmployed},
		domain.EventSuspend: {requireEmployed},
	}

	extra := map[strategyKey]map[domain.Event][]rule{
		{domain.EntityTagTeam, domain.CapEmployable}: {
			domain.EventEmploy: {e.requirePartners},
		},
	}

	out := make(map[strategyKey]Strategy)
	for _, t := range domain.EntityTypes {
		for _, c := range domain.CapabilitiesOf(t) {
			if _, ok := domain.EventFor(c, domain.ActionOpen); !ok {
				continue
			}

			key := strategyKey{entityType: t, capability: c}
			rules := make(map[domain.Event][]rule)
			for ev, rs := range shared {
				if ev.Capability() == c {
					rules[ev] = append(rules[ev], rs...)
				}
			}
			for ev, rs := range extra[key] {
				rules[ev] = append(rules[ev], rs...)
			}

			out[key] = &capabilityStrategy{
				capability: c,
				validator:  e.validator,
				rules:      rules,
			}
		}
	}
	return out
}

// validate runs the strategy registered for the entity type and the event's capability.
func (e *Engine) validate(ctx context.Context, subject Subject, event domain.Event, at time.Time) error {
	s, ok := e.strategies[strategyKey{entityType: subject.Entity.Type, capability: event.Capability()}]
	if !ok {
		return illegal(subject, event, domain.ReasonIllegalForEntityType, "", "")
	}
	return s.Validate(ctx, subject, event, at)
}

// requireEmployed rejects injuries and suspensions of entities that are not
// employed at the effective date under their current, still open employment.
// A backdated flag inside an employment that has since ended would outlive it.
func requireEmployed(_ context.Context, subject Subject, event domain.Event, at time.Time) error {
	status := domain.DeriveStatus(subject.Entity.Type, subject.History, at)
	if status == domain.StatusEmployed {
		tenure, _ := subject.History.ActiveAt(domain.TenureKind(subject.Entity.Type), at)
		if tenure.Current() {
			return nil
		}
		return illegal(subject, event, domain.ReasonPrerequisiteNotMet, status,
			fmt.Sprintf("employment covering %s ended %s", at.Format(time.DateOnly), tenure.EndedAt.Format(time.DateOnly)))
	}

	reason := domain.ReasonPrerequisiteNotMet
	switch {
	case status == domain.StatusRetired:
		reason = domain.ReasonRetired
	case status.Future():
		reason = domain.ReasonHasFutureScheduledTransition
	}
	return illegal(subject, event, reason, status, "must be employed")
}

// requirePartners rejects employing a tag team without exactly two current wrestlers.
func (e *Engine) requirePartners(ctx context.Context, subject Subject, event domain.Event, _ time.Time) error {
	members, err := e.memberships.CurrentMembers(ctx, domain.RelationTagTeamWrestler, subject.Entity.ID)
	if err != nil {
		return fmt.Errorf("loading tag team wrestlers: %w", err)
	}
	if len(members) != domain.TagTeamSize {
		return illegal(subject, event, domain.ReasonPrerequisiteNotMet, "",
			fmt.Sprintf("a tag team needs %d current wrestlers, has %d", domain.TagTeamSize, len(members)))
	}
	return nil
}

func illegal(subject Subject, event domain.Event, reason domain.Reason, current domain.Status, detail string) error {
	return &domain.IllegalTransitionError{
		EntityID:   subject.Entity.ID,
		EntityType: subject.Entity.Type,
		EntityName: subject.Entity.Name,
		Event:      event,
		Reason:     reason,
		Current:    current,
		Detail:     detail,
	}
}
