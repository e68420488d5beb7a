package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/ringside/internal/adapter/otel"
	"github.com/neomorfeo/ringside/internal/domain"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Fake period store ---

type fakePeriods struct {
	current map[domain.PeriodKind]*domain.Period
	nextID  int64
	err     error
}

func newFakePeriods() *fakePeriods {
	return &fakePeriods{current: make(map[domain.PeriodKind]*domain.Period)}
}

func (f *fakePeriods) OpenPeriod(_ context.Context, e domain.Entity, kind domain.PeriodKind, at time.Time) (domain.Period, error) {
	if f.err != nil {
		return domain.Period{}, f.err
	}
	f.nextID++
	p := domain.Period{ID: f.nextID, EntityID: e.ID, EntityType: e.Type, Kind: kind, StartedAt: at}
	f.current[kind] = &p
	return p, nil
}

func (f *fakePeriods) ClosePeriod(_ context.Context, _ domain.Entity, kind domain.PeriodKind, at time.Time) (domain.Period, error) {
	if f.err != nil {
		return domain.Period{}, f.err
	}
	p := f.current[kind]
	if p == nil {
		return domain.Period{}, errors.New("no current period")
	}
	p.EndedAt = &at
	delete(f.current, kind)
	return *p, nil
}

func (f *fakePeriods) CurrentPeriod(_ context.Context, _ domain.Entity, kind domain.PeriodKind) (*domain.Period, error) {
	return f.current[kind], f.err
}

func (f *fakePeriods) PeriodsOverlapping(_ context.Context, _ domain.Entity, kind domain.PeriodKind, _ domain.DateRange) ([]domain.Period, error) {
	if p := f.current[kind]; p != nil {
		return []domain.Period{*p}, f.err
	}
	return nil, f.err
}

func (f *fakePeriods) History(_ context.Context, _ string) (domain.History, error) {
	var h domain.History
	for _, p := range f.current {
		h = append(h, *p)
	}
	return h, f.err
}

var (
	cena = domain.NewEntity("w-1", domain.EntityWrestler, "John Cena", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

// --- Tests ---

func TestTracingPeriodStore_OpenPeriod(t *testing.T) {
	exporter := setupTestTracer(t)
	store := adapter.NewTracingPeriodStore(newFakePeriods())

	p, err := store.OpenPeriod(context.Background(), cena, domain.KindEmployment, jan2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("period ID = %d, want 1", p.ID)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "PeriodStore.OpenPeriod" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "PeriodStore.OpenPeriod")
	}
	assertAttribute(t, spans[0], "entity.id", "w-1")
	assertAttribute(t, spans[0], "entity.type", "wrestler")
	assertAttribute(t, spans[0], "period.kind", "employment")
	assertAttribute(t, spans[0], "period.started_at", "2024-01-02T00:00:00Z")
	assertAttribute(t, spans[0], "period.id", "1")
}

func TestTracingPeriodStore_ClosePeriod(t *testing.T) {
	exporter := setupTestTracer(t)
	store := adapter.NewTracingPeriodStore(newFakePeriods())
	ctx := context.Background()

	if _, err := store.OpenPeriod(ctx, cena, domain.KindInjury, jan2); err != nil {
		t.Fatalf("OpenPeriod: %v", err)
	}
	p, err := store.ClosePeriod(ctx, cena, domain.KindInjury, jan2.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("ClosePeriod: %v", err)
	}
	if p.EndedAt == nil {
		t.Fatal("closed period has no end")
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[1].Name != "PeriodStore.ClosePeriod" {
		t.Errorf("span name = %q, want %q", spans[1].Name, "PeriodStore.ClosePeriod")
	}
	assertAttribute(t, spans[1], "period.kind", "injury")
	assertAttribute(t, spans[1], "period.ended_at", "2024-01-07T00:00:00Z")
}

func TestTracingPeriodStore_CurrentPeriod_NotFound(t *testing.T) {
	exporter := setupTestTracer(t)
	store := adapter.NewTracingPeriodStore(newFakePeriods())

	p, err := store.CurrentPeriod(context.Background(), cena, domain.KindSuspension)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected no current period, got %+v", p)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "period.found", "false")
}

func TestTracingPeriodStore_QueriesRecordCount(t *testing.T) {
	exporter := setupTestTracer(t)
	store := adapter.NewTracingPeriodStore(newFakePeriods())
	ctx := context.Background()

	if _, err := store.OpenPeriod(ctx, cena, domain.KindEmployment, jan2); err != nil {
		t.Fatalf("OpenPeriod: %v", err)
	}
	if _, err := store.PeriodsOverlapping(ctx, cena, domain.KindEmployment, domain.Since(jan2)); err != nil {
		t.Fatalf("PeriodsOverlapping: %v", err)
	}
	if _, err := store.History(ctx, cena.ID); err != nil {
		t.Fatalf("History: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	if spans[1].Name != "PeriodStore.PeriodsOverlapping" {
		t.Errorf("span name = %q, want %q", spans[1].Name, "PeriodStore.PeriodsOverlapping")
	}
	assertAttribute(t, spans[1], "result.count", "1")
	if spans[2].Name != "PeriodStore.History" {
		t.Errorf("span name = %q, want %q", spans[2].Name, "PeriodStore.History")
	}
	assertAttribute(t, spans[2], "entity.id", "w-1")
	assertAttribute(t, spans[2], "result.count", "1")
}

func TestTracingPeriodStore_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newFakePeriods()
	inner.err = &domain.ConcurrentModificationError{EntityID: "w-1"}
	store := adapter.NewTracingPeriodStore(inner)

	_, err := store.OpenPeriod(context.Background(), cena, domain.KindEmployment, jan2)
	var conflict *domain.ConcurrentModificationError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConcurrentModificationError, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
