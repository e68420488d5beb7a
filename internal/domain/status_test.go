package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/ringside/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func period(kind domain.PeriodKind, start string, end string) domain.Period {
	p := domain.Period{EntityID: "e-1", Kind: kind, StartedAt: day(start)}
	if end != "" {
		p.EndedAt = ptr(day(end))
	}
	return p
}

func TestDeriveStatus_Precedence(t *testing.T) {
	asOf := day("2024-06-01")

	cases := []struct {
		name    string
		history domain.History
		want    domain.Status
	}{
		{"no periods", nil, domain.StatusUnemployed},
		{"current employment", domain.History{
			period(domain.KindEmployment, "2024-01-01", ""),
		}, domain.StatusEmployed},
		{"future employment", domain.History{
			period(domain.KindEmployment, "2024-09-01", ""),
		}, domain.StatusFutureEmployment},
		{"released", domain.History{
			period(domain.KindEmployment, "2024-01-01", "2024-02-01"),
		}, domain.StatusReleased},
		{"released with future employment", domain.History{
			period(domain.KindEmployment, "2024-01-01", "2024-02-01"),
			period(domain.KindEmployment, "2024-09-01", ""),
		}, domain.StatusFutureEmployment},
		{"retired outranks open employment", domain.History{
			period(domain.KindEmployment, "2024-01-01", ""),
			period(domain.KindRetirement, "2024-03-01", ""),
		}, domain.StatusRetired},
		{"ended retirement no longer counts", domain.History{
			period(domain.KindEmployment, "2023-01-01", "2023-06-01"),
			period(domain.KindRetirement, "2023-06-01", "2024-01-01"),
			period(domain.KindEmployment, "2024-01-01", ""),
		}, domain.StatusEmployed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.DeriveStatus(domain.EntityWrestler, tc.history, asOf)
			if got != tc.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveStatus_ActivationTrack(t *testing.T) {
	asOf := day("2024-06-01")
	h := domain.History{period(domain.KindActivation, "2024-01-01", "")}

	if got := domain.DeriveStatus(domain.EntityTitle, h, asOf); got != domain.StatusActive {
		t.Errorf("title status = %q, want %q", got, domain.StatusActive)
	}
	if got := domain.DeriveStatus(domain.EntityStable, nil, asOf); got != domain.StatusUnactivated {
		t.Errorf("stable status = %q, want %q", got, domain.StatusUnactivated)
	}
}

func TestReport_InjuryIsOrthogonal(t *testing.T) {
	e := domain.NewEntity("e-1", domain.EntityWrestler, "Edge", day("2023-01-01"))
	h := domain.History{
		period(domain.KindEmployment, "2024-01-01", ""),
		period(domain.KindInjury, "2024-03-01", "2024-04-01"),
	}

	injured := domain.Report(e, h, day("2024-03-15"))
	if injured.Status != domain.StatusEmployed {
		t.Errorf("Status = %q, want %q", injured.Status, domain.StatusEmployed)
	}
	if !injured.Injured {
		t.Error("expected Injured")
	}
	if injured.Bookable {
		t.Error("injured wrestler should not be bookable")
	}

	healed := domain.Report(e, h, day("2024-04-01"))
	if healed.Injured {
		t.Error("injury should have ended")
	}
	if !healed.Bookable {
		t.Error("healed wrestler should be bookable")
	}
	if healed.Tenure == nil || !healed.Tenure.StartedAt.Equal(day("2024-01-01")) {
		t.Errorf("Tenure = %+v, want employment from 2024-01-01", healed.Tenure)
	}
}

func TestReport_FlagsIgnoredOutsideEmployment(t *testing.T) {
	e := domain.NewEntity("e-1", domain.EntityWrestler, "Edge", day("2023-01-01"))
	h := domain.History{
		period(domain.KindEmployment, "2024-01-01", "2024-06-01"),
		period(domain.KindInjury, "2024-03-01", ""),
		period(domain.KindSuspension, "2024-04-01", ""),
	}

	during := domain.Report(e, h, day("2024-05-01"))
	if !during.Injured || !during.Suspended {
		t.Errorf("Injured = %v, Suspended = %v during employment, want both", during.Injured, during.Suspended)
	}

	after := domain.Report(e, h, day("2024-07-01"))
	if after.Status != domain.StatusReleased {
		t.Errorf("Status = %q, want %q", after.Status, domain.StatusReleased)
	}
	if after.Injured || after.Injury != nil {
		t.Error("released wrestler should not be reported injured")
	}
	if after.Suspended || after.Suspension != nil {
		t.Error("released wrestler should not be reported suspended")
	}
}

func TestReport_RefereeIsNeverBookable(t *testing.T) {
	e := domain.NewEntity("r-1", domain.EntityReferee, "Hebner", day("2023-01-01"))
	h := domain.History{period(domain.KindEmployment, "2024-01-01", "")}

	if domain.Report(e, h, day("2024-02-01")).Bookable {
		t.Error("referees do not declare the bookable capability")
	}
}

func TestHistory_Check(t *testing.T) {
	ok := domain.History{
		period(domain.KindEmployment, "2024-01-01", "2024-02-01"),
		period(domain.KindEmployment, "2024-03-01", ""),
		period(domain.KindInjury, "2024-03-05", ""),
	}
	if err := ok.Check(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	twoOpen := domain.History{
		period(domain.KindEmployment, "2024-01-01", ""),
		period(domain.KindEmployment, "2024-03-01", ""),
	}
	if err := twoOpen.Check(); err == nil {
		t.Error("expected DataIntegrityError for two current periods")
	}

	backwards := domain.History{period(domain.KindInjury, "2024-03-01", "2024-02-01")}
	if err := backwards.Check(); err == nil {
		t.Error("expected DataIntegrityError for inverted dates")
	}
}

func TestPeriod_Overlaps(t *testing.T) {
	closed := period(domain.KindEmployment, "2024-01-01", "2024-03-01")

	if !closed.Overlaps(domain.Since(day("2024-02-01"))) {
		t.Error("range starting inside the period should overlap")
	}
	if closed.Overlaps(domain.Since(day("2024-03-01"))) {
		t.Error("half-open period should not overlap a range starting at its end")
	}
	end := day("2024-01-01")
	if closed.Overlaps(domain.DateRange{Start: day("2023-01-01"), End: &end}) {
		t.Error("range ending at the period start should not overlap")
	}
}
