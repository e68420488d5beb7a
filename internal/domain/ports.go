package domain

import (
	"context"
	"time"
)

// EntityRepository defines the persistence contract for roster entities.
type EntityRepository interface {
	Create(ctx context.Context, entity Entity) error
	// GetByID returns a live entity; soft-deleted entities are not found.
	GetByID(ctx context.Context, id string) (Entity, error)
	// GetWithDeleted returns an entity whether or not it is soft-deleted.
	GetWithDeleted(ctx context.Context, id string) (Entity, error)
	List(ctx context.Context, filter ListFilter) ([]Entity, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error
	// Touch bumps the entity version, failing with ConcurrentModificationError
	// when the stored version no longer matches entity.Version.
	Touch(ctx context.Context, entity Entity) (Entity, error)
}

// ListFilter holds optional criteria for listing entities.
type ListFilter struct {
	Type   *EntityType
	Limit  int
	Offset int
}

// PeriodStore persists status periods. It is the only write path for periods.
type PeriodStore interface {
	OpenPeriod(ctx context.Context, entity Entity, kind PeriodKind, startedAt time.Time) (Period, error)
	ClosePeriod(ctx context.Context, entity Entity, kind PeriodKind, endedAt time.Time) (Period, error)
	CurrentPeriod(ctx context.Context, entity Entity, kind PeriodKind) (*Period, error)
	PeriodsOverlapping(ctx context.Context, entity Entity, kind PeriodKind, r DateRange) ([]Period, error)
	History(ctx context.Context, entityID string) (History, error)
}

// MembershipStore persists composite memberships.
type MembershipStore interface {
	Join(ctx context.Context, m Membership) (Membership, error)
	Leave(ctx context.Context, m Membership, leftAt time.Time) (Membership, error)
	CurrentMembers(ctx context.Context, relation Relation, compositeID string) ([]Membership, error)
	CurrentComposites(ctx context.Context, relation Relation, memberID string) ([]Membership, error)
	// EndedAt returns the memberships of a composite that ended exactly at t.
	EndedAt(ctx context.Context, relation Relation, compositeID string, t time.Time) ([]Membership, error)
	MembershipHistory(ctx context.Context, relation Relation, compositeID string) ([]Membership, error)
}

// UnitOfWork runs fn atomically: every write made through ctx commits
// together or not at all.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionValidator checks an event against the state machine of a track
// and returns the destination state.
type TransitionValidator interface {
	Apply(ctx context.Context, track Track, current Status, event Event) (Status, error)
}

// EventPublisher defines the contract for emitting committed changes.
type EventPublisher interface {
	Publish(ctx context.Context, changes []Change) error
}
