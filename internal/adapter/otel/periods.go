package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/ringside/internal/domain"
)

const tracerName = "github.com/neomorfeo/ringside/internal/adapter/otel"

// TracingPeriodStore wraps a domain.PeriodStore with OpenTelemetry tracing.
// Each method creates a span with the entity and period kind and records errors.
type TracingPeriodStore struct {
	next   domain.PeriodStore
	tracer trace.Tracer
}

// Compile-time check: TracingPeriodStore implements domain.PeriodStore.
var _ domain.PeriodStore = (*TracingPeriodStore)(nil)

// NewTracingPeriodStore creates a tracing decorator around the given store.
func NewTracingPeriodStore(next domain.PeriodStore) *TracingPeriodStore {
	return &TracingPeriodStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingPeriodStore) start(ctx context.Context, name string, entity domain.Entity, kind domain.PeriodKind) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("entity.id", entity.ID),
			attribute.String("entity.type", string(entity.Type)),
			attribute.String("period.kind", string(kind)),
		),
	)
}

func (s *TracingPeriodStore) OpenPeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, startedAt time.Time) (domain.Period, error) {
	ctx, span := s.start(ctx, "PeriodStore.OpenPeriod", entity, kind)
	defer span.End()

	span.SetAttributes(attribute.String("period.started_at", startedAt.UTC().Format(time.RFC3339)))

	p, err := s.next.OpenPeriod(ctx, entity, kind, startedAt)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int64("period.id", p.ID))
	}
	return p, err
}

func (s *TracingPeriodStore) ClosePeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, endedAt time.Time) (domain.Period, error) {
	ctx, span := s.start(ctx, "PeriodStore.ClosePeriod", entity, kind)
	defer span.End()

	span.SetAttributes(attribute.String("period.ended_at", endedAt.UTC().Format(time.RFC3339)))

	p, err := s.next.ClosePeriod(ctx, entity, kind, endedAt)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int64("period.id", p.ID))
	}
	return p, err
}

func (s *TracingPeriodStore) CurrentPeriod(ctx context.Context, entity domain.Entity, kind domain.PeriodKind) (*domain.Period, error) {
	ctx, span := s.start(ctx, "PeriodStore.CurrentPeriod", entity, kind)
	defer span.End()

	p, err := s.next.CurrentPeriod(ctx, entity, kind)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Bool("period.found", p != nil))
	}
	return p, err
}

func (s *TracingPeriodStore) PeriodsOverlapping(ctx context.Context, entity domain.Entity, kind domain.PeriodKind, r domain.DateRange) ([]domain.Period, error) {
	ctx, span := s.start(ctx, "PeriodStore.PeriodsOverlapping", entity, kind)
	defer span.End()

	periods, err := s.next.PeriodsOverlapping(ctx, entity, kind, r)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(periods)))
	}
	return periods, err
}

func (s *TracingPeriodStore) History(ctx context.Context, entityID string) (domain.History, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.History",
		trace.WithAttributes(attribute.String("entity.id", entityID)),
	)
	defer span.End()

	h, err := s.next.History(ctx, entityID)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(h)))
	}
	return h, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
