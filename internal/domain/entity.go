package domain

import "time"

// EntityType discriminates the closed set of roster entities.
type EntityType string

const (
	EntityWrestler EntityType = "wrestler"
	EntityReferee  EntityType = "referee"
	EntityManager  EntityType = "manager"
	EntityTagTeam  EntityType = "tag_team"
	EntityStable   EntityType = "stable"
	EntityTitle    EntityType = "title"
)

// EntityTypes lists every known entity type.
var EntityTypes = []EntityType{
	EntityWrestler,
	EntityReferee,
	EntityManager,
	EntityTagTeam,
	EntityStable,
	EntityTitle,
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	_, ok := capabilityMatrix[t]
	return ok
}

// Composite reports whether transitions on t cascade to member entities.
func (t EntityType) Composite() bool {
	return t == EntityTagTeam || t == EntityStable
}

// Entity is a roster entry. Its lifecycle status is never stored here; it is
// derived from the entity's period history.
type Entity struct {
	ID        string
	Type      EntityType
	Name      string
	Version   int64
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewEntity creates a live entity at version 1.
func NewEntity(id string, t EntityType, name string, createdAt time.Time) Entity {
	return Entity{
		ID:        id,
		Type:      t,
		Name:      name,
		Version:   1,
		CreatedAt: createdAt.UTC(),
	}
}

// Deleted reports whether the entity has been soft-deleted.
func (e Entity) Deleted() bool {
	return e.DeletedAt != nil
}
