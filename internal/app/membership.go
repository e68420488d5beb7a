package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

// AddMember makes member a current member of composite. The relation is
// implied by the two entity types. A wrestler joining an employed tag team
// is employed as well.
func (e *Engine) AddMember(ctx context.Context, compositeID, memberID string, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		composite, err := e.entities.GetByID(ctx, compositeID)
		if err != nil {
			return err
		}
		member, err := e.entities.GetByID(ctx, memberID)
		if err != nil {
			return fmt.Errorf("member %s: %w", memberID, err)
		}

		relation, ok := domain.RelationBetween(composite.Type, member.Type)
		if !ok {
			return &domain.ReconciliationError{
				CompositeID: compositeID,
				MemberID:    memberID,
				Reason:      domain.ReconcileWrongMemberType,
				Detail:      fmt.Sprintf("a %s cannot have %s members", composite.Type, member.Type),
			}
		}
		spec := domain.Relations[relation]
		if err := spec.Check(); err != nil {
			return err
		}

		current, err := e.memberships.CurrentMembers(ctx, relation, compositeID)
		if err != nil {
			return fmt.Errorf("loading %s members: %w", relation, err)
		}
		if slices.ContainsFunc(current, func(m domain.Membership) bool { return m.MemberID == memberID }) {
			diff = domain.MembershipDiff{Composite: composite, Relation: relation}
			return nil
		}
		if spec.MaxMembers > 0 && len(current) >= spec.MaxMembers {
			return &domain.ReconciliationError{
				CompositeID: compositeID,
				MemberID:    memberID,
				Reason:      domain.ReconcileCompositeFull,
				Detail:      fmt.Sprintf("already has %d current members", len(current)),
			}
		}

		p := e.newPlanner(composite, "", at)
		if err := e.admit(ctx, p, composite, relation, member, domain.PolicyConservative); err != nil {
			return err
		}
		if err := e.employNewcomers(ctx, p, composite, []domain.Entity{member}); err != nil {
			return err
		}

		report, err := e.execute(ctx, p.plan)
		if err != nil {
			return err
		}

		diff = domain.MembershipDiff{
			Composite: composite,
			Relation:  relation,
			ToAdd:     []string{memberID},
			Steps:     report.Steps,
		}
		return nil
	})
	if err != nil {
		return domain.MembershipDiff{}, e.check(ctx, err)
	}

	if err := e.publish(ctx, diff.Changes(at)); err != nil {
		return domain.MembershipDiff{}, err
	}
	return diff, nil
}

// RemoveMember ends the current membership of member in composite.
func (e *Engine) RemoveMember(ctx context.Context, compositeID, memberID string, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		composite, err := e.entities.GetByID(ctx, compositeID)
		if err != nil {
			return err
		}

		for _, r := range domain.RelationsOf(composite.Type) {
			current, err := e.memberships.CurrentMembers(ctx, r, compositeID)
			if err != nil {
				return fmt.Errorf("loading %s members: %w", r, err)
			}

			i := slices.IndexFunc(current, func(m domain.Membership) bool { return m.MemberID == memberID })
			if i < 0 {
				continue
			}

			p := e.newPlanner(composite, "", at)
			p.add(composite, "", false, []domain.Write{{Op: domain.OpLeave, Membership: current[i]}})

			report, err := e.execute(ctx, p.plan)
			if err != nil {
				return err
			}

			diff = domain.MembershipDiff{
				Composite: composite,
				Relation:  r,
				ToRemove:  []string{memberID},
				Steps:     report.Steps,
			}
			return nil
		}

		return &domain.ReconciliationError{
			CompositeID: compositeID,
			MemberID:    memberID,
			Reason:      domain.ReconcileNotAMember,
		}
	})
	if err != nil {
		return domain.MembershipDiff{}, e.check(ctx, err)
	}

	if err := e.publish(ctx, diff.Changes(at)); err != nil {
		return domain.MembershipDiff{}, err
	}
	return diff, nil
}

// ReconcileMembership brings the current members of composite in relation
// to exactly target. Members leaving are closed and newcomers are opened at
// the effective date. An already matching target writes nothing.
//
// The policy resolves exclusive-relation conflicts: conservative refuses a
// newcomer that belongs to another composite, forced evicts it first.
func (e *Engine) ReconcileMembership(ctx context.Context, compositeID string, relation domain.Relation, target []string, at time.Time, policy domain.RestorePolicy) (domain.MembershipDiff, error) {
	at = effective(at)

	spec, ok := domain.Relations[relation]
	if !ok {
		return domain.MembershipDiff{}, &domain.ReconciliationError{
			CompositeID: compositeID,
			Reason:      domain.ReconcileWrongComposite,
			Detail:      fmt.Sprintf("unknown relation %q", relation),
		}
	}
	if !policy.Valid() {
		return domain.MembershipDiff{}, &domain.ReconciliationError{
			CompositeID: compositeID,
			Reason:      domain.ReconcilePolicyRequired,
		}
	}

	target = distinct(target)
	if err := checkTargetSize(compositeID, relation, spec, target); err != nil {
		return domain.MembershipDiff{}, err
	}

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		composite, err := e.entities.GetByID(ctx, compositeID)
		if err != nil {
			return err
		}
		if composite.Type != spec.Composite {
			return &domain.ReconciliationError{
				CompositeID: compositeID,
				Reason:      domain.ReconcileWrongComposite,
				Detail:      fmt.Sprintf("%s members belong to a %s, not a %s", relation, spec.Composite, composite.Type),
			}
		}
		if err := spec.Check(); err != nil {
			return err
		}

		current, err := e.memberships.CurrentMembers(ctx, relation, compositeID)
		if err != nil {
			return fmt.Errorf("loading %s members: %w", relation, err)
		}

		ids := make([]string, len(current))
		for i, m := range current {
			ids[i] = m.MemberID
		}

		toRemove, toAdd := domain.DiffMembers(ids, target)
		diff = domain.MembershipDiff{
			Composite: composite,
			Relation:  relation,
			ToRemove:  toRemove,
			ToAdd:     toAdd,
		}
		if diff.Empty() {
			return nil
		}

		p := e.newPlanner(composite, "", at)

		var leaves []domain.Write
		for _, m := range current {
			if slices.Contains(toRemove, m.MemberID) {
				leaves = append(leaves, domain.Write{Op: domain.OpLeave, Membership: m})
			}
		}
		if len(leaves) > 0 {
			p.add(composite, "", false, leaves)
		}

		newcomers := make([]domain.Entity, 0, len(toAdd))
		for _, id := range toAdd {
			member, err := e.entities.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("member %s: %w", id, err)
			}
			if member.Type != spec.Member {
				return &domain.ReconciliationError{
					CompositeID: compositeID,
					MemberID:    id,
					Reason:      domain.ReconcileWrongMemberType,
					Detail:      fmt.Sprintf("%s members must be of type %s, got %s", relation, spec.Member, member.Type),
				}
			}
			if err := e.admit(ctx, p, composite, relation, member, policy); err != nil {
				return err
			}
			newcomers = append(newcomers, member)
		}

		if err := e.employNewcomers(ctx, p, composite, newcomers); err != nil {
			return err
		}

		report, err := e.execute(ctx, p.plan)
		if err != nil {
			return err
		}
		diff.Steps = report.Steps

		if relation == domain.RelationTagTeamWrestler {
			after, err := e.memberships.CurrentMembers(ctx, relation, compositeID)
			if err != nil {
				return fmt.Errorf("loading %s members: %w", relation, err)
			}
			if len(after) != domain.TagTeamSize {
				return &domain.DataIntegrityError{
					EntityID: compositeID,
					Detail:   fmt.Sprintf("tag team has %d current wrestlers after reconciliation", len(after)),
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.MembershipDiff{}, e.check(ctx, err)
	}

	if err := e.publish(ctx, diff.Changes(at)); err != nil {
		return domain.MembershipDiff{}, err
	}
	return diff, nil
}

// ReplacePartners reconciles the wrestlers of a tag team to exactly two.
func (e *Engine) ReplacePartners(ctx context.Context, teamID string, wrestlers []string, at time.Time, policy domain.RestorePolicy) (domain.MembershipDiff, error) {
	return e.ReconcileMembership(ctx, teamID, domain.RelationTagTeamWrestler, wrestlers, at, policy)
}

func checkTargetSize(compositeID string, relation domain.Relation, spec domain.RelationSpec, target []string) error {
	switch {
	case relation == domain.RelationTagTeamWrestler && len(target) != domain.TagTeamSize:
		return &domain.ReconciliationError{
			CompositeID: compositeID,
			Reason:      domain.ReconcileInvalidTargetSize,
			Detail:      fmt.Sprintf("a tag team needs exactly %d distinct wrestlers, got %d", domain.TagTeamSize, len(target)),
		}
	case spec.MaxMembers > 0 && len(target) > spec.MaxMembers:
		return &domain.ReconciliationError{
			CompositeID: compositeID,
			Reason:      domain.ReconcileInvalidTargetSize,
			Detail:      fmt.Sprintf("at most %d members allowed, got %d", spec.MaxMembers, len(target)),
		}
	}
	return nil
}

// admit plans member joining composite. In exclusive relations a member that
// belongs to another composite is refused under the conservative policy and
// evicted from it under the forced policy.
func (e *Engine) admit(ctx context.Context, p *planner, composite domain.Entity, relation domain.Relation, member domain.Entity, policy domain.RestorePolicy) error {
	conflicts, err := e.conflicts(ctx, relation, composite.ID, member.ID)
	if err != nil {
		return err
	}

	for _, c := range conflicts {
		if policy != domain.PolicyForced {
			return &domain.ReconciliationError{
				CompositeID: composite.ID,
				MemberID:    member.ID,
				Reason:      domain.ReconcileMemberUnavailable,
				Detail:      fmt.Sprintf("currently a member of %s", c.CompositeID),
			}
		}
		if err := e.evict(ctx, p, c); err != nil {
			return err
		}
	}

	p.add(composite, "", false, []domain.Write{join(relation, composite, member)})
	return nil
}

// conflicts returns the current memberships that keep member out of
// composite in an exclusive relation.
func (e *Engine) conflicts(ctx context.Context, relation domain.Relation, compositeID, memberID string) ([]domain.Membership, error) {
	if !domain.Relations[relation].Exclusive {
		return nil, nil
	}

	current, err := e.memberships.CurrentComposites(ctx, relation, memberID)
	if err != nil {
		return nil, fmt.Errorf("loading %s composites: %w", relation, err)
	}

	var out []domain.Membership
	for _, m := range current {
		if m.CompositeID != compositeID {
			out = append(out, m)
		}
	}
	return out, nil
}

// evict plans ending membership m in its composite.
func (e *Engine) evict(ctx context.Context, p *planner, m domain.Membership) error {
	holder, err := e.entities.GetWithDeleted(ctx, m.CompositeID)
	if err != nil {
		return fmt.Errorf("loading composite %s: %w", m.CompositeID, err)
	}
	p.add(holder, "", false, []domain.Write{{Op: domain.OpLeave, Membership: m}})
	return nil
}

// employNewcomers employs wrestlers joining a currently employed tag team.
func (e *Engine) employNewcomers(ctx context.Context, p *planner, composite domain.Entity, newcomers []domain.Entity) error {
	if composite.Type != domain.EntityTagTeam || len(newcomers) == 0 {
		return nil
	}

	h, err := e.history(ctx, composite.ID)
	if err != nil {
		return err
	}
	if domain.DeriveStatus(composite.Type, h, p.at()) != domain.StatusEmployed {
		return nil
	}

	for _, m := range newcomers {
		if m.Type != domain.EntityWrestler || p.plan.Touches(m.ID) {
			continue
		}
		mh, err := e.history(ctx, m.ID)
		if err != nil {
			return err
		}
		if domain.DeriveStatus(m.Type, mh, p.at()) == domain.StatusEmployed {
			continue
		}
		if err := p.cascade(ctx, m, domain.EventEmploy); err != nil {
			return err
		}
	}
	return nil
}

func join(relation domain.Relation, composite, member domain.Entity) domain.Write {
	return domain.Write{
		Op: domain.OpJoin,
		Membership: domain.Membership{
			Relation:    relation,
			CompositeID: composite.ID,
			MemberID:    member.ID,
			MemberType:  member.Type,
		},
	}
}

func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
