package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/ringside/internal/adapter/fsm"
	"github.com/neomorfeo/ringside/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Track, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q, %q) unexpected error: %v", tr.Track, tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q, %q) = %q, want %q", tr.Track, tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Retired entities cannot be employed.
	_, err := v.Apply(ctx, domain.TrackEmployment, domain.StatusRetired, domain.EventEmploy)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventEmploy {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventEmploy)
	}
	if trErr.Current != domain.StatusRetired {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusRetired)
	}
}

func TestValidator_EventFromOtherTrack(t *testing.T) {
	v := adapter.New()

	// "injure" is not an event of the activation track.
	_, err := v.Apply(context.Background(), domain.TrackActivation, domain.StatusActive, domain.EventInjure)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestValidator_EmploymentLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusUnemployed, domain.EventEmploy, domain.StatusEmployed},
		{domain.StatusEmployed, domain.EventRelease, domain.StatusReleased},
		{domain.StatusReleased, domain.EventEmploy, domain.StatusEmployed},
		{domain.StatusEmployed, domain.EventRetire, domain.StatusRetired},
		{domain.StatusRetired, domain.EventUnretire, domain.StatusEmployed},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, domain.TrackEmployment, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_UnknownTrack(t *testing.T) {
	v := adapter.New()

	_, err := v.Apply(context.Background(), domain.Track("contract"), domain.StatusEmployed, domain.EventRelease)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}
