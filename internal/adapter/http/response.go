package http

import (
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// EntityResponse is the API representation of a roster entity.
type EntityResponse struct {
	ID        string  `json:"id" doc:"Unique identifier"`
	Type      string  `json:"type" doc:"Entity type"`
	Name      string  `json:"name" doc:"Display name"`
	Version   int64   `json:"version" doc:"Optimistic concurrency version"`
	CreatedAt string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	DeletedAt *string `json:"deleted_at,omitempty" doc:"Soft deletion timestamp (ISO 8601)"`
}

func toEntityResponse(e domain.Entity) EntityResponse {
	return EntityResponse{
		ID:        e.ID,
		Type:      string(e.Type),
		Name:      e.Name,
		Version:   e.Version,
		CreatedAt: formatTime(e.CreatedAt),
		DeletedAt: formatNullTime(e.DeletedAt),
	}
}

// PeriodResponse is one status period.
type PeriodResponse struct {
	ID        int64   `json:"id"`
	EntityID  string  `json:"entity_id"`
	Kind      string  `json:"kind" doc:"employment, injury, suspension, retirement or activation"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty" doc:"Absent while the period is current"`
}

func toPeriodResponse(p domain.Period) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		EntityID:  p.EntityID,
		Kind:      string(p.Kind),
		StartedAt: formatTime(p.StartedAt),
		EndedAt:   formatNullTime(p.EndedAt),
	}
}

func toPeriodResponses(ps []domain.Period) []PeriodResponse {
	out := make([]PeriodResponse, len(ps))
	for i, p := range ps {
		out[i] = toPeriodResponse(p)
	}
	return out
}

// StatusResponse is the derived status of an entity at a point in time.
type StatusResponse struct {
	Entity     EntityResponse  `json:"entity"`
	AsOf       string          `json:"as_of"`
	Status     string          `json:"status" doc:"Primary status"`
	Injured    bool            `json:"injured"`
	Suspended  bool            `json:"suspended"`
	Retired    bool            `json:"retired"`
	Bookable   bool            `json:"bookable"`
	Tenure     *PeriodResponse `json:"tenure,omitempty" doc:"Employment or activation period driving the status"`
	Injury     *PeriodResponse `json:"injury,omitempty"`
	Suspension *PeriodResponse `json:"suspension,omitempty"`
	Retirement *PeriodResponse `json:"retirement,omitempty"`
}

func toStatusResponse(r domain.StatusReport) StatusResponse {
	return StatusResponse{
		Entity:     toEntityResponse(r.Entity),
		AsOf:       formatTime(r.AsOf),
		Status:     string(r.Status),
		Injured:    r.Injured,
		Suspended:  r.Suspended,
		Retired:    r.Retired,
		Bookable:   r.Bookable,
		Tenure:     periodPtr(r.Tenure),
		Injury:     periodPtr(r.Injury),
		Suspension: periodPtr(r.Suspension),
		Retirement: periodPtr(r.Retirement),
	}
}

func periodPtr(p *domain.Period) *PeriodResponse {
	if p == nil {
		return nil
	}
	r := toPeriodResponse(*p)
	return &r
}

// MembershipResponse is one membership row.
type MembershipResponse struct {
	Relation    string  `json:"relation"`
	CompositeID string  `json:"composite_id"`
	MemberID    string  `json:"member_id"`
	MemberType  string  `json:"member_type"`
	JoinedAt    string  `json:"joined_at"`
	LeftAt      *string `json:"left_at,omitempty"`
}

func toMembershipResponses(ms []domain.Membership) []MembershipResponse {
	out := make([]MembershipResponse, len(ms))
	for i, m := range ms {
		out[i] = MembershipResponse{
			Relation:    string(m.Relation),
			CompositeID: m.CompositeID,
			MemberID:    m.MemberID,
			MemberType:  string(m.MemberType),
			JoinedAt:    formatTime(m.JoinedAt),
			LeftAt:      formatNullTime(m.LeftAt),
		}
	}
	return out
}

// StepResponse is one applied cascade step.
type StepResponse struct {
	EntityID    string               `json:"entity_id"`
	EntityType  string               `json:"entity_type"`
	Event       string               `json:"event,omitempty"`
	Periods     []PeriodResponse     `json:"periods,omitempty"`
	Memberships []MembershipResponse `json:"memberships,omitempty"`
}

func toStepResponses(steps []domain.AppliedStep) []StepResponse {
	out := make([]StepResponse, len(steps))
	for i, s := range steps {
		out[i] = StepResponse{
			EntityID:    s.Entity.ID,
			EntityType:  string(s.Entity.Type),
			Event:       string(s.Event),
			Periods:     toPeriodResponses(s.Periods),
			Memberships: toMembershipResponses(s.Memberships),
		}
	}
	return out
}

// ReportResponse describes a committed cascade.
type ReportResponse struct {
	Root          EntityResponse `json:"root"`
	Event         string         `json:"event"`
	EffectiveDate string         `json:"effective_date"`
	Steps         []StepResponse `json:"steps"`
}

func toReportResponse(r domain.CascadeReport) ReportResponse {
	return ReportResponse{
		Root:          toEntityResponse(r.Root),
		Event:         string(r.Event),
		EffectiveDate: formatTime(r.EffectiveDate),
		Steps:         toStepResponses(r.Steps),
	}
}

// SkippedResponse names a member left out of a restructuring.
type SkippedResponse struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// DiffResponse describes a committed membership restructuring.
type DiffResponse struct {
	Composite EntityResponse    `json:"composite"`
	Relation  string            `json:"relation,omitempty"`
	Removed   []string          `json:"removed"`
	Added     []string          `json:"added"`
	Skipped   []SkippedResponse `json:"skipped,omitempty"`
	Steps     []StepResponse    `json:"steps"`
}

func toDiffResponse(d domain.MembershipDiff) DiffResponse {
	resp := DiffResponse{
		Composite: toEntityResponse(d.Composite),
		Relation:  string(d.Relation),
		Removed:   nonNil(d.ToRemove),
		Added:     nonNil(d.ToAdd),
		Steps:     toStepResponses(d.Steps),
	}
	for _, s := range d.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedResponse{MemberID: s.MemberID, Reason: s.Reason})
	}
	return resp
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatNullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
