package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/ringside/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// ChangeJobArgs carries one committed roster change to the async worker.
// River serializes it as JSON into its job table; the snapshot is complete
// so the worker never reads the roster tables.
type ChangeJobArgs struct {
	Event         string    `json:"event"`
	EntityID      string    `json:"entity_id"`
	EntityType    string    `json:"entity_type"`
	EffectiveDate time.Time `json:"effective_date"`
	RelatedID     string    `json:"related_id,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ChangeJobArgs) Kind() string { return "roster.change" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues every change of one operation in a single insert, so a
// cascade is queued whole or not at all.
func (p *Publisher) Publish(ctx context.Context, changes []domain.Change) error {
	if len(changes) == 0 {
		return nil
	}

	params := make([]river.InsertManyParams, 0, len(changes))
	for _, c := range changes {
		params = append(params, river.InsertManyParams{Args: argsFor(c)})
	}

	if _, err := p.client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("enqueuing %d change jobs: %w", len(changes), err)
	}
	return nil
}

func argsFor(c domain.Change) ChangeJobArgs {
	return ChangeJobArgs{
		Event:         string(c.Event),
		EntityID:      c.EntityID,
		EntityType:    string(c.EntityType),
		EffectiveDate: c.EffectiveDate.UTC(),
		RelatedID:     c.RelatedID,
	}
}
