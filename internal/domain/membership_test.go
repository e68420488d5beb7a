package domain_test

import (
	"slices"
	"testing"

	"github.com/neomorfeo/ringside/internal/domain"
)

func TestDiffMembers(t *testing.T) {
	toRemove, toAdd := domain.DiffMembers([]string{"a", "b"}, []string{"b", "c"})

	if !slices.Equal(toRemove, []string{"a"}) {
		t.Errorf("toRemove = %v, want [a]", toRemove)
	}
	if !slices.Equal(toAdd, []string{"c"}) {
		t.Errorf("toAdd = %v, want [c]", toAdd)
	}
}

func TestDiffMembers_SameSetIsEmpty(t *testing.T) {
	toRemove, toAdd := domain.DiffMembers([]string{"a", "b"}, []string{"b", "a"})
	diff := domain.MembershipDiff{ToRemove: toRemove, ToAdd: toAdd}

	if !diff.Empty() {
		t.Errorf("expected empty diff, got remove=%v add=%v", toRemove, toAdd)
	}
}

func TestRelationBetween(t *testing.T) {
	r, ok := domain.RelationBetween(domain.EntityStable, domain.EntityTagTeam)
	if !ok || r != domain.RelationStableTagTeam {
		t.Errorf("RelationBetween(stable, tag_team) = %q, %v", r, ok)
	}

	if _, ok := domain.RelationBetween(domain.EntityStable, domain.EntityManager); ok {
		t.Error("managers are not stable members")
	}
}

func TestRelationsOf(t *testing.T) {
	got := domain.RelationsOf(domain.EntityStable)
	want := []domain.Relation{domain.RelationStableTagTeam, domain.RelationStableWrestler}
	if !slices.Equal(got, want) {
		t.Errorf("RelationsOf(stable) = %v, want %v", got, want)
	}
}
