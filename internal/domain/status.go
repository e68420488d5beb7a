package domain

import "time"

// Status is a discrete state derived from period history. Employment and
// activation tracks share the retired state; injury and suspension are
// independent flags layered on top.
type Status string

const (
	StatusRetired          Status = "retired"
	StatusEmployed         Status = "employed"
	StatusFutureEmployment Status = "future_employment"
	StatusReleased         Status = "released"
	StatusUnemployed       Status = "unemployed"

	StatusActive           Status = "active"
	StatusFutureActivation Status = "future_activation"
	StatusInactive         Status = "inactive"
	StatusUnactivated      Status = "unactivated"

	StatusInjured     Status = "injured"
	StatusHealthy     Status = "healthy"
	StatusSuspended   Status = "suspended"
	StatusUnsuspended Status = "unsuspended"
)

// tenureStatuses maps the tenure kind to its current/future/lapsed/never names.
var tenureStatuses = map[PeriodKind][4]Status{
	KindEmployment: {StatusEmployed, StatusFutureEmployment, StatusReleased, StatusUnemployed},
	KindActivation: {StatusActive, StatusFutureActivation, StatusInactive, StatusUnactivated},
}

// DeriveStatus computes the tenure status of an entity of type t at instant
// at. Precedence, highest first: retired, current, future, lapsed, never.
// A retirement outranks an employment period that was left open.
func DeriveStatus(t EntityType, h History, at time.Time) Status {
	tenure := TenureKind(t)
	names := tenureStatuses[tenure]

	if _, ok := h.ActiveAt(KindRetirement, at); ok {
		return StatusRetired
	}
	if _, ok := h.ActiveAt(tenure, at); ok {
		return names[0]
	}

	periods := h.OfKind(tenure)
	for _, p := range periods {
		if p.StartedAt.After(at) {
			return names[1]
		}
	}
	if len(periods) > 0 {
		return names[2]
	}
	return names[3]
}

// IsInjured reports whether an injury period covers at.
func IsInjured(h History, at time.Time) bool {
	_, ok := h.ActiveAt(KindInjury, at)
	return ok
}

// IsSuspended reports whether a suspension period covers at.
func IsSuspended(h History, at time.Time) bool {
	_, ok := h.ActiveAt(KindSuspension, at)
	return ok
}

// IsRetired reports whether a retirement period covers at.
func IsRetired(h History, at time.Time) bool {
	_, ok := h.ActiveAt(KindRetirement, at)
	return ok
}

// StatusReport is the answer to a status query.
type StatusReport struct {
	Entity     Entity
	AsOf       time.Time
	Status     Status
	Injured    bool
	Suspended  bool
	Retired    bool
	Bookable   bool
	Tenure     *Period
	Injury     *Period
	Suspension *Period
	Retirement *Period
}

// Employed reports whether the tenure status is employed or active.
func (r StatusReport) Employed() bool {
	return r.Status == StatusEmployed || r.Status == StatusActive
}

// Report derives the full status of e at instant at. Injury and suspension
// only count while the entity is employed or active.
func Report(e Entity, h History, at time.Time) StatusReport {
	r := StatusReport{
		Entity:  e,
		AsOf:    at,
		Status:  DeriveStatus(e.Type, h, at),
		Retired: IsRetired(h, at),
	}
	r.Tenure = periodAt(h, TenureKind(e.Type), at)
	r.Retirement = periodAt(h, KindRetirement, at)
	if r.Employed() {
		r.Injury = periodAt(h, KindInjury, at)
		r.Suspension = periodAt(h, KindSuspension, at)
		r.Injured = r.Injury != nil
		r.Suspended = r.Suspension != nil
	}
	r.Bookable = Supports(e.Type, CapBookable) &&
		r.Status == StatusEmployed && !r.Injured && !r.Suspended && !r.Retired
	return r
}

func periodAt(h History, kind PeriodKind, at time.Time) *Period {
	p, ok := h.ActiveAt(kind, at)
	if !ok {
		return nil
	}
	return &p
}
