package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/neomorfeo/ringside/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Track:   domain.TrackEmployment,
		Event:   domain.EventRelease,
		Current: domain.StatusUnemployed,
	}
	want := `event "release" is not valid from employment state "unemployed"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIllegalTransitionError_Error(t *testing.T) {
	err := &domain.IllegalTransitionError{
		EntityID:   "w-1",
		EntityType: domain.EntityWrestler,
		EntityName: "Kane",
		Event:      domain.EventEmploy,
		Reason:     domain.ReasonRetired,
		Current:    domain.StatusRetired,
	}
	want := `wrestler "Kane" cannot employ: retired (currently retired)`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIllegalTransitionError_UnwrapsEventSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &domain.IllegalTransitionError{
		Event:  domain.EventRetire,
		Reason: domain.ReasonAlreadyInStatus,
	})

	if !errors.Is(err, domain.ErrCannotBeRetired) {
		t.Errorf("expected errors.Is(err, ErrCannotBeRetired)")
	}
	if errors.Is(err, domain.ErrCannotBeEmployed) {
		t.Errorf("did not expect errors.Is(err, ErrCannotBeEmployed)")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"concurrent modification", &domain.ConcurrentModificationError{EntityID: "x"}, true},
		{"wrapped concurrent modification", fmt.Errorf("tx: %w", &domain.ConcurrentModificationError{}), true},
		{"illegal transition", &domain.IllegalTransitionError{}, false},
		{"data integrity", &domain.DataIntegrityError{}, false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReconciliationError_Error(t *testing.T) {
	err := &domain.ReconciliationError{
		CompositeID: "tt-1",
		MemberID:    "w-3",
		Reason:      domain.ReconcileMemberUnavailable,
		Detail:      "already in tag team tt-2",
	}
	want := "cannot reconcile members of tt-1: member_unavailable (member w-3): already in tag team tt-2"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
