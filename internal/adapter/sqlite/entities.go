package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

const entityColumns = `id, type, name, version, created_at, deleted_at`

func (s *Store) Create(ctx context.Context, e domain.Entity) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO entities (id, type, name, version, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Name, e.Version, formatTime(e.CreatedAt),
	)
	if err != nil {
		return translate(fmt.Errorf("inserting entity: %w", err), e.ID)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.Entity, error) {
	return scanEntity(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = ? AND deleted_at IS NULL`, id,
	))
}

func (s *Store) GetWithDeleted(ctx context.Context, id string) (domain.Entity, error) {
	return scanEntity(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id,
	))
}

func (s *Store) List(ctx context.Context, filter domain.ListFilter) ([]domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE deleted_at IS NULL`
	var args []any

	if filter.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*filter.Type))
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return entities, rows.Err()
}

func (s *Store) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE entities SET deleted_at = ?, version = version + 1
		 WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), id,
	)
	if err != nil {
		return translate(fmt.Errorf("deleting entity: %w", err), id)
	}
	return expectOneRow(result, domain.ErrEntityNotFound)
}

func (s *Store) Restore(ctx context.Context, id string) error {
	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE entities SET deleted_at = NULL, version = version + 1
		 WHERE id = ? AND deleted_at IS NOT NULL`,
		id,
	)
	if err != nil {
		return translate(fmt.Errorf("restoring entity: %w", err), id)
	}
	return expectOneRow(result, domain.ErrEntityNotFound)
}

func (s *Store) Touch(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE entities SET version = version + 1 WHERE id = ? AND version = ?`,
		e.ID, e.Version,
	)
	if err != nil {
		return domain.Entity{}, translate(fmt.Errorf("touching entity: %w", err), e.ID)
	}
	if err := expectOneRow(result, &domain.ConcurrentModificationError{EntityID: e.ID}); err != nil {
		return domain.Entity{}, err
	}
	e.Version++
	return e, nil
}

func expectOneRow(result sql.Result, otherwise error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return otherwise
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (domain.Entity, error) {
	var (
		e         domain.Entity
		typ       string
		createdAt string
		deletedAt sql.NullString
	)

	err := row.Scan(&e.ID, &typ, &e.Name, &e.Version, &createdAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Entity{}, domain.ErrEntityNotFound
		}
		return domain.Entity{}, fmt.Errorf("scanning entity: %w", err)
	}

	e.Type = domain.EntityType(typ)
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Entity{}, err
	}
	if e.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return domain.Entity{}, err
	}

	return e, nil
}
