package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrUnknownEvent      = errors.New("unknown lifecycle event")
	ErrEmptyName         = errors.New("entity name must not be empty")
)

// Per-event sentinels. An IllegalTransitionError unwraps to the sentinel of
// its event so callers can match with errors.Is.
var (
	ErrCannotBeEmployed    = errors.New("cannot be employed")
	ErrCannotBeReleased    = errors.New("cannot be released")
	ErrCannotBeInjured     = errors.New("cannot be injured")
	ErrCannotBeHealed      = errors.New("cannot be cleared from injury")
	ErrCannotBeSuspended   = errors.New("cannot be suspended")
	ErrCannotBeReinstated  = errors.New("cannot be reinstated")
	ErrCannotBeRetired     = errors.New("cannot be retired")
	ErrCannotBeUnretired   = errors.New("cannot be unretired")
	ErrCannotBeActivated   = errors.New("cannot be activated")
	ErrCannotBeDeactivated = errors.New("cannot be deactivated")
)

var eventSentinels = map[Event]error{
	EventEmploy:     ErrCannotBeEmployed,
	EventRelease:    ErrCannotBeReleased,
	EventInjure:     ErrCannotBeInjured,
	EventHeal:       ErrCannotBeHealed,
	EventSuspend:    ErrCannotBeSuspended,
	EventReinstate:  ErrCannotBeReinstated,
	EventRetire:     ErrCannotBeRetired,
	EventUnretire:   ErrCannotBeUnretired,
	EventActivate:   ErrCannotBeActivated,
	EventDeactivate: ErrCannotBeDeactivated,
}

// UnsupportedCapabilityError is returned when an entity type does not declare
// a capability. It signals a programming or configuration error.
type UnsupportedCapabilityError struct {
	EntityType EntityType
	Capability Capability
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("entity type %q does not support capability %q", e.EntityType, e.Capability)
}

// Reason classifies why a transition was refused.
type Reason string

const (
	ReasonAlreadyInStatus              Reason = "already_in_status"
	ReasonRetired                      Reason = "retired"
	ReasonHasFutureScheduledTransition Reason = "has_future_scheduled_transition"
	ReasonPrerequisiteNotMet           Reason = "prerequisite_not_met"
	ReasonIllegalForEntityType         Reason = "illegal_for_entity_type"
	ReasonOverlapsHistory              Reason = "overlaps_history"
)

// TransitionError is returned by a TransitionValidator when an event is not
// valid from the current state of a track.
type TransitionError struct {
	Track   Track
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from %s state %q", e.Event, e.Track, e.Current)
}

// IllegalTransitionError is a business-rule violation surfaced to the caller.
type IllegalTransitionError struct {
	EntityID   string
	EntityType EntityType
	EntityName string
	Event      Event
	Reason     Reason
	Current    Status
	Detail     string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("%s %q cannot %s: %s", e.EntityType, e.EntityName, e.Event, e.Reason)
	if e.Current != "" {
		msg += fmt.Sprintf(" (currently %s)", e.Current)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes the per-event sentinel.
func (e *IllegalTransitionError) Unwrap() error {
	return eventSentinels[e.Event]
}

// DuplicateCurrentPeriodError is returned when opening a period while one of
// the same kind is still current.
type DuplicateCurrentPeriodError struct {
	EntityID string
	Kind     PeriodKind
}

func (e *DuplicateCurrentPeriodError) Error() string {
	return fmt.Sprintf("entity %s already has a current %s period", e.EntityID, e.Kind)
}

// NoCurrentPeriodError is returned when closing a period that is not open.
type NoCurrentPeriodError struct {
	EntityID string
	Kind     PeriodKind
}

func (e *NoCurrentPeriodError) Error() string {
	return fmt.Sprintf("entity %s has no current %s period", e.EntityID, e.Kind)
}

// InvalidDateOrderError is returned when a period would end at or before its start.
type InvalidDateOrderError struct {
	EntityID  string
	Kind      PeriodKind
	StartedAt time.Time
	EndedAt   time.Time
}

func (e *InvalidDateOrderError) Error() string {
	return fmt.Sprintf("%s period of entity %s cannot end at %s, it started at %s",
		e.Kind, e.EntityID, e.EndedAt.Format(time.RFC3339), e.StartedAt.Format(time.RFC3339))
}

// ConcurrentModificationError is returned when another writer changed the
// entity first. Retrying the whole operation once is safe.
type ConcurrentModificationError struct {
	EntityID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("entity %s was modified concurrently", e.EntityID)
}

// DataIntegrityError reports store corruption. It is fatal and never retried.
type DataIntegrityError struct {
	EntityID string
	Detail   string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation on entity %s: %s", e.EntityID, e.Detail)
}

// ReconcileReason classifies a refused membership change.
type ReconcileReason string

const (
	ReconcileInvalidTargetSize ReconcileReason = "invalid_target_size"
	ReconcileMemberUnavailable ReconcileReason = "member_unavailable"
	ReconcileWrongMemberType   ReconcileReason = "wrong_member_type"
	ReconcileNotAMember        ReconcileReason = "not_a_member"
	ReconcileCompositeFull     ReconcileReason = "composite_full"
	ReconcilePolicyRequired    ReconcileReason = "policy_required"
	ReconcileNotDeleted        ReconcileReason = "not_deleted"
	ReconcileSameEntity        ReconcileReason = "same_entity"
	ReconcileWrongComposite    ReconcileReason = "wrong_composite_type"
)

// ReconciliationError is returned when a membership restructuring is refused.
type ReconciliationError struct {
	CompositeID string
	MemberID    string
	Reason      ReconcileReason
	Detail      string
}

func (e *ReconciliationError) Error() string {
	msg := fmt.Sprintf("cannot reconcile members of %s: %s", e.CompositeID, e.Reason)
	if e.MemberID != "" {
		msg += fmt.Sprintf(" (member %s)", e.MemberID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsRetryable reports whether err is transient and the operation may be retried.
func IsRetryable(err error) bool {
	var cm *ConcurrentModificationError
	return errors.As(err, &cm)
}
