package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Transition opens or closes the period behind a capability of an entity and
// returns the last period written for it. Composite entities cascade.
func (e *Engine) Transition(ctx context.Context, id string, c domain.Capability, a domain.Action, at time.Time) (domain.Period, error) {
	report, err := e.CascadeTransition(ctx, id, c, a, at)
	if err != nil {
		return domain.Period{}, err
	}

	p, ok := report.RootPeriod()
	if !ok {
		return domain.Period{}, e.check(ctx, &domain.DataIntegrityError{
			EntityID: id,
			Detail:   fmt.Sprintf("%s wrote no period", report.Event),
		})
	}
	return p, nil
}

// CascadeTransition applies the lifecycle event behind a capability and
// action, together with every member transition it implies, atomically.
func (e *Engine) CascadeTransition(ctx context.Context, id string, c domain.Capability, a domain.Action, at time.Time) (domain.CascadeReport, error) {
	entity, err := e.entities.GetByID(ctx, id)
	if err != nil {
		return domain.CascadeReport{}, err
	}

	if err := domain.RequireCapability(entity.Type, c); err != nil {
		return domain.CascadeReport{}, err
	}

	event, ok := domain.EventFor(c, a)
	if !ok {
		return domain.CascadeReport{}, illegal(Subject{Entity: entity}, "", domain.ReasonIllegalForEntityType, "",
			fmt.Sprintf("capability %q has no lifecycle periods", c))
	}

	return e.apply(ctx, entity, event, at)
}

// Apply applies a lifecycle event to an entity and cascades it to members.
func (e *Engine) Apply(ctx context.Context, id string, event domain.Event, at time.Time) (domain.CascadeReport, error) {
	if !event.Lifecycle() {
		return domain.CascadeReport{}, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, event)
	}

	entity, err := e.entities.GetByID(ctx, id)
	if err != nil {
		return domain.CascadeReport{}, err
	}

	if err := domain.RequireCapability(entity.Type, event.Capability()); err != nil {
		return domain.CascadeReport{}, err
	}

	return e.apply(ctx, entity, event, at)
}

func (e *Engine) apply(ctx context.Context, root domain.Entity, event domain.Event, at time.Time) (domain.CascadeReport, error) {
	at = effective(at)

	var report domain.CascadeReport
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		p := e.newPlanner(root, event, at)
		if err := p.cascade(ctx, root, event); err != nil {
			return err
		}

		var err error
		report, err = e.execute(ctx, p.plan)
		return err
	})
	if err != nil {
		return domain.CascadeReport{}, e.check(ctx, err)
	}

	if err := e.publish(ctx, report.Changes()); err != nil {
		return domain.CascadeReport{}, err
	}

	return report, nil
}

// execute runs a plan. It must be called inside a unit of work: any error
// discards every write made so far. Each step is validated against the
// history as left by the steps before it.
func (e *Engine) execute(ctx context.Context, plan domain.Plan) (domain.CascadeReport, error) {
	report := domain.CascadeReport{
		Root:          plan.Root,
		Event:         plan.Event,
		EffectiveDate: plan.EffectiveDate,
	}
	at := plan.EffectiveDate
	touched := make(map[string]struct{})

	for _, step := range plan.Steps {
		entity := step.Entity

		if _, ok := touched[entity.ID]; !ok {
			if _, err := e.entities.Touch(ctx, entity); err != nil {
				return domain.CascadeReport{}, err
			}
			touched[entity.ID] = struct{}{}
		}

		if step.Validate {
			h, err := e.history(ctx, entity.ID)
			if err != nil {
				return domain.CascadeReport{}, err
			}
			if err := e.validate(ctx, Subject{Entity: entity, History: h}, step.Event, at); err != nil {
				return domain.CascadeReport{}, err
			}
		}

		applied := domain.AppliedStep{Entity: entity, Event: step.Event}

		for _, w := range step.Writes {
			switch w.Op {
			case domain.OpOpen:
				event := step.Event
				if event == "" {
					event = plan.Event
				}
				if err := e.checkOverlap(ctx, entity, w.Kind, event, at); err != nil {
					return domain.CascadeReport{}, err
				}
				p, err := e.periods.OpenPeriod(ctx, entity, w.Kind, at)
				if err != nil {
					return domain.CascadeReport{}, err
				}
				applied.Periods = append(applied.Periods, p)

			case domain.OpClose:
				p, err := e.periods.ClosePeriod(ctx, entity, w.Kind, at)
				if err != nil {
					return domain.CascadeReport{}, err
				}
				applied.Periods = append(applied.Periods, p)

			case domain.OpJoin:
				m := w.Membership
				m.JoinedAt = at
				joined, err := e.memberships.Join(ctx, m)
				if err != nil {
					return domain.CascadeReport{}, err
				}
				applied.Memberships = append(applied.Memberships, joined)

			case domain.OpLeave:
				left, err := e.memberships.Leave(ctx, w.Membership, at)
				if err != nil {
					return domain.CascadeReport{}, err
				}
				applied.Memberships = append(applied.Memberships, left)

			default:
				return domain.CascadeReport{}, fmt.Errorf("unknown write op %q", w.Op)
			}
		}

		report.Steps = append(report.Steps, applied)
	}

	return report, nil
}

// checkOverlap rejects opening a period that starts inside a closed period
// of the same kind.
func (e *Engine) checkOverlap(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, event domain.Event, at time.Time) error {
	overlapping, err := e.periods.PeriodsOverlapping(ctx, entity, kind, domain.Since(at))
	if err != nil {
		return fmt.Errorf("checking %s overlap: %w", kind, err)
	}

	for _, p := range overlapping {
		if p.Current() {
			continue
		}
		return &domain.IllegalTransitionError{
			EntityID:   entity.ID,
			EntityType: entity.Type,
			EntityName: entity.Name,
			Event:      event,
			Reason:     domain.ReasonOverlapsHistory,
			Detail: fmt.Sprintf("%s period from %s to %s covers %s", kind,
				p.StartedAt.Format(time.DateOnly), p.EndedAt.Format(time.DateOnly), at.Format(time.DateOnly)),
		}
	}
	return nil
}

// planner computes the ordered steps of a cascade before anything is written.
type planner struct {
	e    *Engine
	plan domain.Plan
}

func (e *Engine) newPlanner(root domain.Entity, event domain.Event, at time.Time) *planner {
	return &planner{
		e: e,
		plan: domain.Plan{
			Root:          root,
			Event:         event,
			EffectiveDate: at,
		},
	}
}

func (p *planner) at() time.Time {
	return p.plan.EffectiveDate
}

func (p *planner) add(entity domain.Entity, event domain.Event, validate bool, writes []domain.Write) {
	p.plan.Steps = append(p.plan.Steps, domain.Step{
		Entity:   entity,
		Event:    event,
		Validate: validate,
		Writes:   writes,
	})
}

// cascade plans event on entity and on the members it carries along.
func (p *planner) cascade(ctx context.Context, entity domain.Entity, event domain.Event) error {
	switch entity.Type {
	case domain.EntityTagTeam:
		return p.tagTeam(ctx, entity, event)
	case domain.EntityStable:
		return p.stable(ctx, entity, event)
	}
	return p.individual(ctx, entity, event)
}

// individual plans event on a single entity. Releasing or retiring closes
// an open injury or suspension first.
func (p *planner) individual(ctx context.Context, entity domain.Entity, event domain.Event) error {
	if event == domain.EventRelease || event == domain.EventRetire {
		if err := p.closeFlags(ctx, entity, event); err != nil {
			return err
		}
	}
	p.add(entity, event, true, domain.WritesFor(entity.Type, event))
	return nil
}

// closeFlags plans healing and reinstatement of the open flags that event
// ends. A flag starting on or after the effective date cannot be closed then,
// so event is refused instead.
func (p *planner) closeFlags(ctx context.Context, entity domain.Entity, event domain.Event) error {
	h, err := p.e.history(ctx, entity.ID)
	if err != nil {
		return err
	}

	flags := []struct {
		capability domain.Capability
		kind       domain.PeriodKind
		event      domain.Event
	}{
		{domain.CapInjurable, domain.KindInjury, domain.EventHeal},
		{domain.CapSuspendable, domain.KindSuspension, domain.EventReinstate},
	}

	for _, f := range flags {
		if !domain.Supports(entity.Type, f.capability) {
			continue
		}
		flag, open := h.Current(f.kind)
		if !open {
			continue
		}
		if !flag.StartedAt.Before(p.at()) {
			return illegal(Subject{Entity: entity, History: h}, event, domain.ReasonOverlapsHistory, "",
				fmt.Sprintf("open %s period starts %s", f.kind, flag.StartedAt.Format(time.DateOnly)))
		}
		p.add(entity, f.event, true, domain.WritesFor(entity.Type, f.event))
	}
	return nil
}

func (p *planner) tagTeam(ctx context.Context, team domain.Entity, event domain.Event) error {
	switch event {
	case domain.EventEmploy:
		p.add(team, event, true, domain.WritesFor(team.Type, event))
		return p.eachMember(ctx, team, func(m domain.Entity, h domain.History) error {
			if domain.DeriveStatus(m.Type, h, p.at()) == domain.StatusEmployed {
				return nil
			}
			return p.cascade(ctx, m, domain.EventEmploy)
		}, domain.RelationTagTeamWrestler, domain.RelationTagTeamManager)

	case domain.EventRelease, domain.EventRetire:
		if err := p.individual(ctx, team, event); err != nil {
			return err
		}
		return p.eachMember(ctx, team, func(m domain.Entity, h domain.History) error {
			if domain.DeriveStatus(m.Type, h, p.at()) != domain.StatusEmployed {
				return nil
			}
			return p.individual(ctx, m, domain.EventRelease)
		}, domain.RelationTagTeamWrestler)

	case domain.EventSuspend:
		p.add(team, event, true, domain.WritesFor(team.Type, event))
		return p.eachMember(ctx, team, func(m domain.Entity, h domain.History) error {
			if domain.DeriveStatus(m.Type, h, p.at()) != domain.StatusEmployed || domain.IsSuspended(h, p.at()) {
				return nil
			}
			return p.cascade(ctx, m, domain.EventSuspend)
		}, domain.RelationTagTeamWrestler)

	case domain.EventReinstate:
		p.add(team, event, true, domain.WritesFor(team.Type, event))
		return p.eachMember(ctx, team, func(m domain.Entity, h domain.History) error {
			if !domain.IsSuspended(h, p.at()) {
				return nil
			}
			return p.cascade(ctx, m, domain.EventReinstate)
		}, domain.RelationTagTeamWrestler)

	case domain.EventUnretire:
		return p.unretire(ctx, team, domain.RelationTagTeamWrestler)
	}

	p.add(team, event, true, domain.WritesFor(team.Type, event))
	return nil
}

func (p *planner) stable(ctx context.Context, stable domain.Entity, event domain.Event) error {
	relations := []domain.Relation{domain.RelationStableWrestler, domain.RelationStableTagTeam}

	switch event {
	case domain.EventActivate:
		p.add(stable, event, true, domain.WritesFor(stable.Type, event))
		return p.eachMember(ctx, stable, func(m domain.Entity, h domain.History) error {
			if domain.DeriveStatus(m.Type, h, p.at()) == domain.StatusEmployed {
				return nil
			}
			return p.cascade(ctx, m, domain.EventEmploy)
		}, relations...)

	case domain.EventRetire:
		p.add(stable, event, true, domain.WritesFor(stable.Type, event))
		err := p.eachMember(ctx, stable, func(m domain.Entity, h domain.History) error {
			if domain.DeriveStatus(m.Type, h, p.at()) != domain.StatusEmployed {
				return nil
			}
			return p.cascade(ctx, m, domain.EventRetire)
		}, relations...)
		if err != nil {
			return err
		}
		return p.endMemberships(ctx, stable, relations...)

	case domain.EventUnretire:
		return p.unretire(ctx, stable, relations...)
	}

	p.add(stable, event, true, domain.WritesFor(stable.Type, event))
	return nil
}

// unretire ends the composite's retirement, unretires its current members
// that are retired, then opens a new tenure for the composite.
func (p *planner) unretire(ctx context.Context, composite domain.Entity, relations ...domain.Relation) error {
	writes := domain.WritesFor(composite.Type, domain.EventUnretire)

	p.add(composite, domain.EventUnretire, true, writes[:1])

	err := p.eachMember(ctx, composite, func(m domain.Entity, h domain.History) error {
		if !domain.IsRetired(h, p.at()) {
			return nil
		}
		return p.cascade(ctx, m, domain.EventUnretire)
	}, relations...)
	if err != nil {
		return err
	}

	p.add(composite, "", false, writes[1:])
	return nil
}

func (p *planner) endMemberships(ctx context.Context, composite domain.Entity, relations ...domain.Relation) error {
	var writes []domain.Write
	for _, r := range relations {
		members, err := p.e.memberships.CurrentMembers(ctx, r, composite.ID)
		if err != nil {
			return fmt.Errorf("loading %s members: %w", r, err)
		}
		for _, m := range members {
			writes = append(writes, domain.Write{Op: domain.OpLeave, Membership: m})
		}
	}
	if len(writes) > 0 {
		p.add(composite, "", false, writes)
	}
	return nil
}

// eachMember calls fn for every current member of composite in the given
// relations that the plan does not touch yet.
func (p *planner) eachMember(ctx context.Context, composite domain.Entity, fn func(domain.Entity, domain.History) error, relations ...domain.Relation) error {
	for _, r := range relations {
		members, err := p.e.memberships.CurrentMembers(ctx, r, composite.ID)
		if err != nil {
			return fmt.Errorf("loading %s members: %w", r, err)
		}

		for _, m := range members {
			if p.plan.Touches(m.MemberID) {
				continue
			}

			member, err := p.e.member(ctx, m)
			if err != nil {
				return err
			}

			h, err := p.e.history(ctx, member.ID)
			if err != nil {
				return err
			}

			if err := fn(member, h); err != nil {
				return err
			}
		}
	}
	return nil
}
