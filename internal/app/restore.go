package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Delete soft-deletes an entity. Its current memberships end at the
// effective date, whether it is the composite or the member. Periods are kept.
func (e *Engine) Delete(ctx context.Context, id string, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		entity, err := e.entities.GetByID(ctx, id)
		if err != nil {
			return err
		}

		diff = domain.MembershipDiff{Composite: entity}
		var leaves []domain.Write

		for _, r := range domain.RelationsOf(entity.Type) {
			members, err := e.memberships.CurrentMembers(ctx, r, id)
			if err != nil {
				return fmt.Errorf("loading %s members: %w", r, err)
			}
			for _, m := range members {
				leaves = append(leaves, domain.Write{Op: domain.OpLeave, Membership: m})
				diff.ToRemove = append(diff.ToRemove, m.MemberID)
			}
		}

		for _, r := range domain.MemberRelationsOf(entity.Type) {
			composites, err := e.memberships.CurrentComposites(ctx, r, id)
			if err != nil {
				return fmt.Errorf("loading %s composites: %w", r, err)
			}
			for _, m := range composites {
				leaves = append(leaves, domain.Write{Op: domain.OpLeave, Membership: m})
			}
		}

		p := e.newPlanner(entity, "", at)
		p.add(entity, "", false, leaves)

		report, err := e.execute(ctx, p.plan)
		if err != nil {
			return err
		}
		diff.Steps = report.Steps

		if err := e.entities.SoftDelete(ctx, id, at); err != nil {
			return fmt.Errorf("deleting entity %s: %w", id, err)
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

// Restore brings back a soft-deleted entity and reattaches, at the effective
// date, the members whose membership ended when it was deleted. The policy is
// mandatory: conservative skips members that meanwhile joined another
// composite of the same relation, forced evicts them from it first.
func (e *Engine) Restore(ctx context.Context, id string, policy domain.RestorePolicy, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	if !policy.Valid() {
		return domain.MembershipDiff{}, &domain.ReconciliationError{
			CompositeID: id,
			Reason:      domain.ReconcilePolicyRequired,
			Detail:      fmt.Sprintf("choose %q or %q", domain.PolicyConservative, domain.PolicyForced),
		}
	}

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		deleted, err := e.entities.GetWithDeleted(ctx, id)
		if err != nil {
			return err
		}
		if !deleted.Deleted() {
			return &domain.ReconciliationError{
				CompositeID: id,
				Reason:      domain.ReconcileNotDeleted,
			}
		}

		if err := e.entities.Restore(ctx, id); err != nil {
			return fmt.Errorf("restoring entity %s: %w", id, err)
		}
		entity, err := e.entities.GetByID(ctx, id)
		if err != nil {
			return err
		}

		diff = domain.MembershipDiff{Composite: entity}
		p := e.newPlanner(entity, "", at)

		for _, r := range domain.RelationsOf(entity.Type) {
			ended, err := e.memberships.EndedAt(ctx, r, id, *deleted.DeletedAt)
			if err != nil {
				return fmt.Errorf("loading %s members: %w", r, err)
			}

			for _, m := range ended {
				member, err := e.entities.GetByID(ctx, m.MemberID)
				if err != nil {
					diff.Skipped = append(diff.Skipped, domain.SkippedMember{
						MemberID: m.MemberID,
						Reason:   "member no longer exists",
					})
					continue
				}

				conflicts, err := e.conflicts(ctx, r, id, member.ID)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 && policy == domain.PolicyConservative {
					diff.Skipped = append(diff.Skipped, domain.SkippedMember{
						MemberID: member.ID,
						Reason:   fmt.Sprintf("currently a member of %s", conflicts[0].CompositeID),
					})
					continue
				}

				if err := e.admit(ctx, p, entity, r, member, policy); err != nil {
					return err
				}
				diff.ToAdd = append(diff.ToAdd, member.ID)
			}
		}

		report, err := e.execute(ctx, p.plan)
		if err != nil {
			return err
		}
		diff.Steps = report.Steps
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
