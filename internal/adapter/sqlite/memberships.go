package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

const membershipColumns = `id, relation, composite_id, member_id, member_type, joined_at, left_at`

// Join records a current membership. Joining a composite the member already
// belongs to returns the existing membership.
func (s *Store) Join(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	m.JoinedAt = normalize(m.JoinedAt)

	existing, err := s.queryMemberships(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE relation = ? AND composite_id = ? AND member_id = ? AND left_at IS NULL`,
		string(m.Relation), m.CompositeID, m.MemberID,
	)
	if err != nil {
		return domain.Membership{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO memberships (relation, composite_id, member_id, member_type, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(m.Relation), m.CompositeID, m.MemberID, string(m.MemberType), formatTime(m.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Membership{}, &domain.ReconciliationError{
				CompositeID: m.CompositeID,
				MemberID:    m.MemberID,
				Reason:      domain.ReconcileMemberUnavailable,
				Detail:      fmt.Sprintf("already a current member of another %s", domain.Relations[m.Relation].Composite),
			}
		}
		return domain.Membership{}, translate(fmt.Errorf("inserting membership: %w", err), m.CompositeID)
	}

	if m.ID, err = result.LastInsertId(); err != nil {
		return domain.Membership{}, fmt.Errorf("reading membership id: %w", err)
	}
	m.LeftAt = nil

	return m, nil
}

// Leave ends a current membership at leftAt.
func (s *Store) Leave(ctx context.Context, m domain.Membership, leftAt time.Time) (domain.Membership, error) {
	leftAt = normalize(leftAt)

	if !leftAt.After(m.JoinedAt) {
		return domain.Membership{}, &domain.InvalidDateOrderError{
			EntityID:  m.MemberID,
			Kind:      domain.KindMembership,
			StartedAt: m.JoinedAt,
			EndedAt:   leftAt,
		}
	}

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE memberships SET left_at = ? WHERE id = ? AND left_at IS NULL`,
		formatTime(leftAt), m.ID,
	)
	if err != nil {
		return domain.Membership{}, translate(fmt.Errorf("ending membership: %w", err), m.CompositeID)
	}
	if err := expectOneRow(result, &domain.ConcurrentModificationError{EntityID: m.CompositeID}); err != nil {
		return domain.Membership{}, err
	}

	m.LeftAt = &leftAt
	return m, nil
}

func (s *Store) CurrentMembers(ctx context.Context, relation domain.Relation, compositeID string) ([]domain.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE relation = ? AND composite_id = ? AND left_at IS NULL
		 ORDER BY joined_at, member_id`,
		string(relation), compositeID,
	)
}

func (s *Store) CurrentComposites(ctx context.Context, relation domain.Relation, memberID string) ([]domain.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE relation = ? AND member_id = ? AND left_at IS NULL
		 ORDER BY joined_at, composite_id`,
		string(relation), memberID,
	)
}

func (s *Store) EndedAt(ctx context.Context, relation domain.Relation, compositeID string, t time.Time) ([]domain.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE relation = ? AND composite_id = ? AND left_at = ?
		 ORDER BY member_id`,
		string(relation), compositeID, formatTime(t),
	)
}

func (s *Store) MembershipHistory(ctx context.Context, relation domain.Relation, compositeID string) ([]domain.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE relation = ? AND composite_id = ?
		 ORDER BY joined_at, id`,
		string(relation), compositeID,
	)
}

func (s *Store) queryMemberships(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(fmt.Errorf("querying memberships: %w", err), "")
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

func scanMembership(row scanner) (domain.Membership, error) {
	var (
		m          domain.Membership
		relation   string
		memberType string
		joinedAt   string
		leftAt     sql.NullString
	)

	if err := row.Scan(&m.ID, &relation, &m.CompositeID, &m.MemberID, &memberType, &joinedAt, &leftAt); err != nil {
		return domain.Membership{}, fmt.Errorf("scanning membership: %w", err)
	}

	m.Relation = domain.Relation(relation)
	m.MemberType = domain.EntityType(memberType)

	var err error
	if m.JoinedAt, err = parseTime(joinedAt); err != nil {
		return domain.Membership{}, err
	}
	if m.LeftAt, err = parseNullTime(leftAt); err != nil {
		return domain.Membership{}, err
	}

	return m, nil
}
