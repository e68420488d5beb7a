package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

const periodColumns = `id, entity_id, entity_type, kind, started_at, ended_at`

// OpenPeriod starts a period of the given kind. Opening the current period
// again at the same instant returns it unchanged.
func (s *Store) OpenPeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, startedAt time.Time) (domain.Period, error) {
	startedAt = normalize(startedAt)

	current, err := s.CurrentPeriod(ctx, entity, kind)
	if err != nil {
		return domain.Period{}, err
	}
	if current != nil {
		if current.StartedAt.Equal(startedAt) {
			return *current, nil
		}
		return domain.Period{}, &domain.DuplicateCurrentPeriodError{EntityID: entity.ID, Kind: kind}
	}

	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO status_periods (entity_id, entity_type, kind, started_at)
		 VALUES (?, ?, ?, ?)`,
		entity.ID, string(entity.Type), string(kind), formatTime(startedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Period{}, &domain.DuplicateCurrentPeriodError{EntityID: entity.ID, Kind: kind}
		}
		return domain.Period{}, translate(fmt.Errorf("opening %s period: %w", kind, err), entity.ID)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Period{}, fmt.Errorf("reading period id: %w", err)
	}

	return domain.Period{
		ID:         id,
		EntityID:   entity.ID,
		EntityType: entity.Type,
		Kind:       kind,
		StartedAt:  startedAt,
	}, nil
}

// ClosePeriod ends the current period of the given kind. Closing a period
// that already ended at exactly endedAt returns it unchanged.
func (s *Store) ClosePeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, endedAt time.Time) (domain.Period, error) {
	endedAt = normalize(endedAt)

	current, err := s.CurrentPeriod(ctx, entity, kind)
	if err != nil {
		return domain.Period{}, err
	}

	if current == nil {
		last, err := s.latestPeriod(ctx, entity.ID, kind)
		if err != nil {
			return domain.Period{}, err
		}
		if last != nil && last.EndedAt != nil && last.EndedAt.Equal(endedAt) {
			return *last, nil
		}
		return domain.Period{}, &domain.NoCurrentPeriodError{EntityID: entity.ID, Kind: kind}
	}

	if !endedAt.After(current.StartedAt) {
		return domain.Period{}, &domain.InvalidDateOrderError{
			EntityID:  entity.ID,
			Kind:      kind,
			StartedAt: current.StartedAt,
			EndedAt:   endedAt,
		}
	}

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE status_periods SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		formatTime(endedAt), current.ID,
	)
	if err != nil {
		return domain.Period{}, translate(fmt.Errorf("closing %s period: %w", kind, err), entity.ID)
	}
	if err := expectOneRow(result, &domain.ConcurrentModificationError{EntityID: entity.ID}); err != nil {
		return domain.Period{}, err
	}

	current.EndedAt = &endedAt
	return *current, nil
}

func (s *Store) CurrentPeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind) (*domain.Period, error) {
	periods, err := s.queryPeriods(ctx,
		`SELECT `+periodColumns+` FROM status_periods
		 WHERE entity_id = ? AND kind = ? AND ended_at IS NULL`,
		entity.ID, string(kind),
	)
	if err != nil {
		return nil, err
	}

	switch len(periods) {
	case 0:
		return nil, nil
	case 1:
		return &periods[0], nil
	default:
		return nil, &domain.DataIntegrityError{
			EntityID: entity.ID,
			Detail:   fmt.Sprintf("%d current %s periods", len(periods), kind),
		}
	}
}

func (s *Store) PeriodsOverlapping(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, r domain.DateRange) ([]domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM status_periods
		WHERE entity_id = ? AND kind = ? AND (ended_at IS NULL OR ended_at > ?)`
	args := []any{entity.ID, string(kind), formatTime(r.Start)}

	if r.End != nil {
		query += ` AND started_at < ?`
		args = append(args, formatTime(*r.End))
	}

	query += ` ORDER BY started_at, id`

	return s.queryPeriods(ctx, query, args...)
}

func (s *Store) History(ctx context.Context, entityID string) (domain.History, error) {
	periods, err := s.queryPeriods(ctx,
		`SELECT `+periodColumns+` FROM status_periods
		 WHERE entity_id = ? ORDER BY started_at, id`,
		entityID,
	)
	if err != nil {
		return nil, err
	}
	return domain.History(periods), nil
}

func (s *Store) latestPeriod(ctx context.Context, entityID string, kind domain.PeriodKind) (*domain.Period, error) {
	periods, err := s.queryPeriods(ctx,
		`SELECT `+periodColumns+` FROM status_periods
		 WHERE entity_id = ? AND kind = ? ORDER BY started_at DESC, id DESC LIMIT 1`,
		entityID, string(kind),
	)
	if err != nil || len(periods) == 0 {
		return nil, err
	}
	return &periods[0], nil
}

func (s *Store) queryPeriods(ctx context.Context, query string, args ...any) ([]domain.Period, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(fmt.Errorf("querying periods: %w", err), "")
	}
	defer rows.Close()

	var periods []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

func scanPeriod(row scanner) (domain.Period, error) {
	var (
		p          domain.Period
		entityType string
		kind       string
		startedAt  string
		endedAt    sql.NullString
	)

	if err := row.Scan(&p.ID, &p.EntityID, &entityType, &kind, &startedAt, &endedAt); err != nil {
		return domain.Period{}, fmt.Errorf("scanning period: %w", err)
	}

	p.EntityType = domain.EntityType(entityType)
	p.Kind = domain.PeriodKind(kind)

	var err error
	if p.StartedAt, err = parseTime(startedAt); err != nil {
		return domain.Period{}, err
	}
	if p.EndedAt, err = parseNullTime(endedAt); err != nil {
		return domain.Period{}, err
	}

	return p, nil
}
