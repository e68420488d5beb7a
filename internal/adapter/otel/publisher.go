package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/ringside/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing
// and counts the changes it hands on.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) (*TracingPublisher, error) {
	counter, err := otel.Meter(tracerName).Int64Counter("ringside.changes.published",
		metric.WithDescription("Roster changes handed to the change publisher"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		published: counter,
	}, nil
}

func (p *TracingPublisher) Publish(ctx context.Context, changes []domain.Change) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(attribute.Int("changes.count", len(changes))),
	)
	defer span.End()

	if len(changes) > 0 {
		span.SetAttributes(
			attribute.String("event.type", string(changes[0].Event)),
			attribute.String("entity.id", changes[0].EntityID),
		)
	}

	err := p.next.Publish(ctx, changes)
	if err != nil {
		recordError(span, err)
		return err
	}

	for _, c := range changes {
		p.published.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event.type", string(c.Event)),
			attribute.String("entity.type", string(c.EntityType)),
		))
	}
	return nil
}
