package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Ports groups the adapters the engine depends on.
type Ports struct {
	Entities    domain.EntityRepository
	Periods     domain.PeriodStore
	Memberships domain.MembershipStore
	UoW         domain.UnitOfWork
	Validator   domain.TransitionValidator
	Publisher   domain.EventPublisher
}

// Engine orchestrates roster lifecycle operations. Every mutation runs inside
// one unit of work and is published after it commits.
type Engine struct {
	entities    domain.EntityRepository
	periods     domain.PeriodStore
	memberships domain.MembershipStore
	uow         domain.UnitOfWork
	validator   domain.TransitionValidator
	publisher   domain.EventPublisher
	strategies  map[strategyKey]Strategy
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report data integrity failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine with the given adapters.
func NewEngine(p Ports, opts ...Option) *Engine {
	e := &Engine{
		entities:    p.Entities,
		periods:     p.Periods,
		memberships: p.Memberships,
		uow:         p.UoW,
		validator:   p.Validator,
		publisher:   p.Publisher,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.strategies = newStrategies(e)
	return e
}

// CreateEntity registers a new roster entity.
func (e *Engine) CreateEntity(ctx context.Context, t domain.EntityType, name string, createdAt time.Time) (domain.Entity, error) {
	if !t.Valid() {
		return domain.Entity{}, fmt.Errorf("%w: %q", domain.ErrInvalidEntityType, t)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Entity{}, domain.ErrEmptyName
	}

	id, err := generateID()
	if err != nil {
		return domain.Entity{}, fmt.Errorf("generating entity id: %w", err)
	}

	entity := domain.NewEntity(id, t, name, effective(createdAt))

	if err := e.entities.Create(ctx, entity); err != nil {
		return domain.Entity{}, fmt.Errorf("creating entity: %w", err)
	}

	return entity, nil
}

// GetEntity returns a live entity by its unique identifier.
func (e *Engine) GetEntity(ctx context.Context, id string) (domain.Entity, error) {
	return e.entities.GetByID(ctx, id)
}

// List returns live entities matching the given filter.
func (e *Engine) List(ctx context.Context, filter domain.ListFilter) ([]domain.Entity, error) {
	return e.entities.List(ctx, filter)
}

// History returns every period recorded for a live entity.
func (e *Engine) History(ctx context.Context, id string) (domain.History, error) {
	if _, err := e.entities.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return e.history(ctx, id)
}

// Members returns the current memberships in which id is the composite.
func (e *Engine) Members(ctx context.Context, id string) ([]domain.Membership, error) {
	entity, err := e.entities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []domain.Membership
	for _, r := range domain.RelationsOf(entity.Type) {
		members, err := e.memberships.CurrentMembers(ctx, r, id)
		if err != nil {
			return nil, fmt.Errorf("loading %s members: %w", r, err)
		}
		out = append(out, members...)
	}
	return out, nil
}

// QueryStatus derives the status of an entity as of the given instant.
// A tag team is bookable only when both of its wrestlers are bookable too.
func (e *Engine) QueryStatus(ctx context.Context, id string, asOf time.Time) (domain.StatusReport, error) {
	entity, err := e.entities.GetByID(ctx, id)
	if err != nil {
		return domain.StatusReport{}, err
	}

	asOf = effective(asOf)

	h, err := e.history(ctx, id)
	if err != nil {
		return domain.StatusReport{}, e.check(ctx, err)
	}

	report := domain.Report(entity, h, asOf)

	if entity.Type == domain.EntityTagTeam && report.Bookable {
		report.Bookable, err = e.partnersBookable(ctx, entity, asOf)
		if err != nil {
			return domain.StatusReport{}, e.check(ctx, err)
		}
	}

	return report, nil
}

func (e *Engine) partnersBookable(ctx context.Context, team domain.Entity, asOf time.Time) (bool, error) {
	members, err := e.memberships.CurrentMembers(ctx, domain.RelationTagTeamWrestler, team.ID)
	if err != nil {
		return false, fmt.Errorf("loading tag team wrestlers: %w", err)
	}
	if len(members) != domain.TagTeamSize {
		return false, nil
	}

	for _, m := range members {
		wrestler, err := e.member(ctx, m)
		if err != nil {
			return false, err
		}
		h, err := e.history(ctx, wrestler.ID)
		if err != nil {
			return false, err
		}
		if !domain.Report(wrestler, h, asOf).Bookable {
			return false, nil
		}
	}
	return true, nil
}

// history loads and checks the period history of an entity.
func (e *Engine) history(ctx context.Context, id string) (domain.History, error) {
	h, err := e.periods.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if err := h.Check(); err != nil {
		return nil, err
	}
	return h, nil
}

// member loads the live member entity of a current membership.
func (e *Engine) member(ctx context.Context, m domain.Membership) (domain.Entity, error) {
	entity, err := e.entities.GetByID(ctx, m.MemberID)
	if errors.Is(err, domain.ErrEntityNotFound) {
		return domain.Entity{}, &domain.DataIntegrityError{
			EntityID: m.CompositeID,
			Detail:   fmt.Sprintf("current %s membership references missing member %s", m.Relation, m.MemberID),
		}
	}
	return entity, err
}

// publish hands committed changes to the publisher.
func (e *Engine) publish(ctx context.Context, changes []domain.Change) error {
	if len(changes) == 0 {
		return nil
	}
	if err := e.publisher.Publish(ctx, changes); err != nil {
		return fmt.Errorf("publishing changes: %w", err)
	}
	return nil
}

// check logs data integrity failures and returns err unchanged.
func (e *Engine) check(ctx context.Context, err error) error {
	var integrity *domain.DataIntegrityError
	if errors.As(err, &integrity) {
		e.logger.ErrorContext(ctx, "data integrity violation",
			"entity_id", integrity.EntityID,
			"detail", integrity.Detail,
		)
	}
	return err
}

// effective normalizes an effective date to the precision periods are stored with.
func effective(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
