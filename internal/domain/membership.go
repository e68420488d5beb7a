package domain

import (
	"slices"
	"time"
)

// Relation names a kind of association between a composite and a member.
type Relation string

const (
	RelationTagTeamWrestler Relation = "tag_team_wrestler"
	RelationTagTeamManager  Relation = "tag_team_manager"
	RelationWrestlerManager Relation = "wrestler_manager"
	RelationStableWrestler  Relation = "stable_wrestler"
	RelationStableTagTeam   Relation = "stable_tag_team"
)

// RelationSpec declares the shape of a relation.
type RelationSpec struct {
	Composite EntityType
	Member    EntityType
	// Exclusive relations allow a member at most one current composite.
	Exclusive bool
	// MaxMembers bounds the current member count; zero is unbounded.
	MaxMembers int
	// CompositeRequires and MemberRequires gate each side on a capability.
	CompositeRequires Capability
	MemberRequires    Capability
}

// Relations is the static relation table.
var Relations = map[Relation]RelationSpec{
	RelationTagTeamWrestler: {Composite: EntityTagTeam, Member: EntityWrestler, Exclusive: true, MaxMembers: TagTeamSize},
	RelationTagTeamManager:  {Composite: EntityTagTeam, Member: EntityManager, CompositeRequires: CapManageable},
	RelationWrestlerManager: {Composite: EntityWrestler, Member: EntityManager, CompositeRequires: CapManageable},
	RelationStableWrestler:  {Composite: EntityStable, Member: EntityWrestler, Exclusive: true, MemberRequires: CapStableMember},
	RelationStableTagTeam:   {Composite: EntityStable, Member: EntityTagTeam, Exclusive: true, MemberRequires: CapStableMember},
}

// TagTeamSize is the exact number of current wrestlers a tag team carries.
const TagTeamSize = 2

// Check verifies the capability gates of the relation.
func (s RelationSpec) Check() error {
	if s.CompositeRequires != "" {
		if err := RequireCapability(s.Composite, s.CompositeRequires); err != nil {
			return err
		}
	}
	if s.MemberRequires != "" {
		if err := RequireCapability(s.Member, s.MemberRequires); err != nil {
			return err
		}
	}
	return nil
}

// RelationBetween returns the relation linking a composite type to a member type.
func RelationBetween(composite, member EntityType) (Relation, bool) {
	for r, spec := range Relations {
		if spec.Composite == composite && spec.Member == member {
			return r, true
		}
	}
	return "", false
}

// RelationsOf returns the relations in which t is the composite side, in a stable order.
func RelationsOf(t EntityType) []Relation {
	var out []Relation
	for r, spec := range Relations {
		if spec.Composite == t {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

// MemberRelationsOf returns the relations in which t is the member side, in a stable order.
func MemberRelationsOf(t EntityType) []Relation {
	var out []Relation
	for r, spec := range Relations {
		if spec.Member == t {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

// Membership is a time-bounded association between a composite and a member.
type Membership struct {
	ID          int64
	Relation    Relation
	CompositeID string
	MemberID    string
	MemberType  EntityType
	JoinedAt    time.Time
	LeftAt      *time.Time
}

// Current reports whether the membership has not ended.
func (m Membership) Current() bool {
	return m.LeftAt == nil
}

// MembershipDiff is the outcome of a reconciliation, merge, split or restore.
// Relation is empty when the operation spans several relations.
type MembershipDiff struct {
	Composite Entity
	Relation  Relation
	ToRemove  []string
	ToAdd     []string
	Skipped   []SkippedMember
	// Steps holds everything written, including lifecycle steps applied as a
	// consequence, e.g. employing a new partner of an employed tag team.
	Steps []AppliedStep
}

// Changes flattens the applied steps into publishable changes.
func (d MembershipDiff) Changes(at time.Time) []Change {
	var out []Change
	for _, s := range d.Steps {
		out = append(out, s.Changes(at)...)
	}
	return out
}

// Empty reports whether the reconciliation changes nothing.
func (d MembershipDiff) Empty() bool {
	return len(d.ToRemove) == 0 && len(d.ToAdd) == 0
}

// SkippedMember records a member a reconciliation deliberately left alone.
type SkippedMember struct {
	MemberID string
	Reason   string
}

// DiffMembers computes current − target and target − current, sorted.
func DiffMembers(current, target []string) (toRemove, toAdd []string) {
	inTarget := make(map[string]struct{}, len(target))
	for _, id := range target {
		inTarget[id] = struct{}{}
	}
	inCurrent := make(map[string]struct{}, len(current))
	for _, id := range current {
		inCurrent[id] = struct{}{}
		if _, ok := inTarget[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	for id := range inTarget {
		if _, ok := inCurrent[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	slices.Sort(toRemove)
	slices.Sort(toAdd)
	return toRemove, toAdd
}

// RestorePolicy selects how members are reattached to a restored composite
// and how exclusive-relation conflicts are resolved during reconciliation.
type RestorePolicy string

const (
	// PolicyConservative leaves members that currently belong elsewhere untouched.
	PolicyConservative RestorePolicy = "conservative"
	// PolicyForced evicts members from their current composite first.
	PolicyForced RestorePolicy = "forced"
)

// Valid reports whether p names a known policy.
func (p RestorePolicy) Valid() bool {
	return p == PolicyConservative || p == PolicyForced
}
