package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

var stableRelations = []domain.Relation{domain.RelationStableWrestler, domain.RelationStableTagTeam}

// Merge moves every current member of secondary into primary and then
// soft-deletes secondary. Either every member moves and the delete succeeds,
// or nothing changes.
func (e *Engine) Merge(ctx context.Context, primaryID, secondaryID string, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	if primaryID == secondaryID {
		return domain.MembershipDiff{}, &domain.ReconciliationError{
			CompositeID: primaryID,
			Reason:      domain.ReconcileSameEntity,
			Detail:      "a stable cannot be merged into itself",
		}
	}

	var diff domain.MembershipDiff
	err := e.uow.RunInTx(ctx, func(ctx context.Context) error {
		primary, err := e.stableByID(ctx, primaryID)
		if err != nil {
			return err
		}
		secondary, err := e.stableByID(ctx, secondaryID)
		if err != nil {
			return err
		}

		p := e.newPlanner(primary, "", at)
		diff = domain.MembershipDiff{Composite: primary}

		for _, r := range stableRelations {
			members, err := e.memberships.CurrentMembers(ctx, r, secondaryID)
			if err != nil {
				return fmt.Errorf("loading %s members: %w", r, err)
			}
			for _, m := range members {
				p.add(secondary, "", false, []domain.Write{{Op: domain.OpLeave, Membership: m}})
				p.add(primary, "", false, []domain.Write{{Op: domain.OpJoin, Membership: domain.Membership{
					Relation:    r,
					CompositeID: primaryID,
					MemberID:    m.MemberID,
					MemberType:  m.MemberType,
				}}})
				diff.ToAdd = append(diff.ToAdd, m.MemberID)
			}
		}

		report, err := e.execute(ctx, p.plan)
		if err != nil {
			return err
		}
		diff.Steps = report.Steps

		if err := e.entities.SoftDelete(ctx, secondaryID, at); err != nil {
			return fmt.Errorf("deleting stable %s: %w", secondaryID, err)
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

// Split creates a new stable named name, activates it at the effective date
// and moves into it the members of subset that are currently employed.
// Members that are not employed stay in the original stable and are
// reported as skipped.
func (e *Engine) Split(ctx context.Context, originalID, name string, subset []string, at time.Time) (domain.MembershipDiff, error) {
	at = effective(at)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.MembershipDiff{}, fmt.Errorf("splitting stable %s: %w", originalID, domain.ErrEmptyName)
	}

	id, err := generateID()
	if err != nil {
		return domain.MembershipDiff{}, fmt.Errorf("generating entity id: %w", err)
	}

	var diff domain.MembershipDiff
	err = e.uow.RunInTx(ctx, func(ctx context.Context) error {
		original, err := e.stableByID(ctx, originalID)
		if err != nil {
			return err
		}

		created := domain.NewEntity(id, domain.EntityStable, name, at)
		if err := e.entities.Create(ctx, created); err != nil {
			return fmt.Errorf("creating stable: %w", err)
		}

		p := e.newPlanner(created, domain.EventActivate, at)
		if err := p.cascade(ctx, created, domain.EventActivate); err != nil {
			return err
		}

		diff = domain.MembershipDiff{Composite: created}

		for _, memberID := range distinct(subset) {
			m, err := e.currentStableMembership(ctx, originalID, memberID)
			if err != nil {
				return err
			}

			member, err := e.member(ctx, m)
			if err != nil {
				return err
			}
			h, err := e.history(ctx, memberID)
			if err != nil {
				return err
			}
			if status := domain.DeriveStatus(member.Type, h, at); status != domain.StatusEmployed {
				diff.Skipped = append(diff.Skipped, domain.SkippedMember{
					MemberID: memberID,
					Reason:   fmt.Sprintf("not employed (%s)", status),
				})
				continue
			}

			p.add(original, "", false, []domain.Write{{Op: domain.OpLeave, Membership: m}})
			p.add(created, "", false, []domain.Write{join(m.Relation, created, member)})
			diff.ToAdd = append(diff.ToAdd, memberID)
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

func (e *Engine) stableByID(ctx context.Context, id string) (domain.Entity, error) {
	entity, err := e.entities.GetByID(ctx, id)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity.Type != domain.EntityStable {
		return domain.Entity{}, &domain.ReconciliationError{
			CompositeID: id,
			Reason:      domain.ReconcileWrongComposite,
			Detail:      fmt.Sprintf("expected a stable, got a %s", entity.Type),
		}
	}
	return entity, nil
}

func (e *Engine) currentStableMembership(ctx context.Context, stableID, memberID string) (domain.Membership, error) {
	for _, r := range stableRelations {
		current, err := e.memberships.CurrentMembers(ctx, r, stableID)
		if err != nil {
			return domain.Membership{}, fmt.Errorf("loading %s members: %w", r, err)
		}
		if i := slices.IndexFunc(current, func(m domain.Membership) bool { return m.MemberID == memberID }); i >= 0 {
			return current[i], nil
		}
	}
	return domain.Membership{}, &domain.ReconciliationError{
		CompositeID: stableID,
		MemberID:    memberID,
		Reason:      domain.ReconcileNotAMember,
	}
}
