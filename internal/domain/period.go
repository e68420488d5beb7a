package domain

import (
	"fmt"
	"time"
)

// PeriodKind names an independent history of status periods. Periods of
// different kinds coexist; an entity can be employed and injured at once.
type PeriodKind string

const (
	KindEmployment PeriodKind = "employment"
	KindInjury     PeriodKind = "injury"
	KindSuspension PeriodKind = "suspension"
	KindRetirement PeriodKind = "retirement"
	KindActivation PeriodKind = "activation"

	// KindMembership labels membership date errors; memberships are not periods.
	KindMembership PeriodKind = "membership"
)

// Period is a time-bounded record of one capability instance for one entity.
// A nil EndedAt marks the current period of its kind.
type Period struct {
	ID         int64
	EntityID   string
	EntityType EntityType
	Kind       PeriodKind
	StartedAt  time.Time
	EndedAt    *time.Time
}

// Current reports whether the period has not been closed.
func (p Period) Current() bool {
	return p.EndedAt == nil
}

// ActiveAt reports whether the period covers instant t. Periods are
// half-open: [StartedAt, EndedAt).
func (p Period) ActiveAt(t time.Time) bool {
	if p.StartedAt.After(t) {
		return false
	}
	return p.EndedAt == nil || p.EndedAt.After(t)
}

// Overlaps reports whether the period intersects r.
func (p Period) Overlaps(r DateRange) bool {
	if r.End != nil && !p.StartedAt.Before(*r.End) {
		return false
	}
	return p.EndedAt == nil || p.EndedAt.After(r.Start)
}

// DateRange is a half-open range; a nil End is unbounded.
type DateRange struct {
	Start time.Time
	End   *time.Time
}

// Since returns the unbounded range starting at t.
func Since(t time.Time) DateRange {
	return DateRange{Start: t}
}

// History is every period recorded for one entity, in any order.
type History []Period

// OfKind returns the periods of the given kind.
func (h History) OfKind(kind PeriodKind) History {
	var out History
	for _, p := range h {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Current returns the open period of the given kind, if any.
func (h History) Current(kind PeriodKind) (Period, bool) {
	for _, p := range h {
		if p.Kind == kind && p.Current() {
			return p, true
		}
	}
	return Period{}, false
}

// ActiveAt returns the period of the given kind covering t, if any.
func (h History) ActiveAt(kind PeriodKind, t time.Time) (Period, bool) {
	for _, p := range h {
		if p.Kind == kind && p.ActiveAt(t) {
			return p, true
		}
	}
	return Period{}, false
}

// Closed returns the closed periods of the given kind.
func (h History) Closed(kind PeriodKind) History {
	var out History
	for _, p := range h {
		if p.Kind == kind && !p.Current() {
			out = append(out, p)
		}
	}
	return out
}

// Check verifies the period invariants: every closed period ends after it
// starts and each kind has at most one open period.
func (h History) Check() error {
	open := make(map[PeriodKind]int)
	for _, p := range h {
		if p.EndedAt != nil && !p.EndedAt.After(p.StartedAt) {
			return &DataIntegrityError{
				EntityID: p.EntityID,
				Detail:   fmt.Sprintf("%s period %d ends at or before its start", p.Kind, p.ID),
			}
		}
		if p.Current() {
			open[p.Kind]++
			if open[p.Kind] > 1 {
				return &DataIntegrityError{
					EntityID: p.EntityID,
					Detail:   fmt.Sprintf("more than one current %s period", p.Kind),
				}
			}
		}
	}
	return nil
}
