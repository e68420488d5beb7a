package domain

// Capability is a named life-cycle behavior an entity type may support.
type Capability string

const (
	CapEmployable   Capability = "employable"
	CapInjurable    Capability = "injurable"
	CapSuspendable  Capability = "suspendable"
	CapRetirable    Capability = "retirable"
	CapActivatable  Capability = "activatable"
	CapBookable     Capability = "bookable"
	CapManageable   Capability = "manageable"
	CapStableMember Capability = "stable_member"
)

type capabilitySet map[Capability]struct{}

func capabilities(caps ...Capability) capabilitySet {
	set := make(capabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// capabilityMatrix is declared once and checked by entity type identity.
var capabilityMatrix = map[EntityType]capabilitySet{
	EntityWrestler: capabilities(CapEmployable, CapInjurable, CapSuspendable, CapRetirable, CapBookable, CapManageable, CapStableMember),
	EntityReferee:  capabilities(CapEmployable, CapInjurable, CapSuspendable, CapRetirable),
	EntityManager:  capabilities(CapEmployable, CapInjurable, CapSuspendable, CapRetirable),
	EntityTagTeam:  capabilities(CapEmployable, CapSuspendable, CapRetirable, CapBookable, CapManageable, CapStableMember),
	EntityStable:   capabilities(CapActivatable, CapRetirable),
	EntityTitle:    capabilities(CapActivatable, CapRetirable),
}

// Supports reports whether entity type t declares capability c.
func Supports(t EntityType, c Capability) bool {
	_, ok := capabilityMatrix[t][c]
	return ok
}

// RequireCapability returns an UnsupportedCapabilityError when t does not declare c.
func RequireCapability(t EntityType, c Capability) error {
	if !Supports(t, c) {
		return &UnsupportedCapabilityError{EntityType: t, Capability: c}
	}
	return nil
}

// CapabilitiesOf returns the capabilities declared for t in a stable order.
func CapabilitiesOf(t EntityType) []Capability {
	order := []Capability{
		CapEmployable, CapInjurable, CapSuspendable, CapRetirable,
		CapActivatable, CapBookable, CapManageable, CapStableMember,
	}
	out := make([]Capability, 0, len(order))
	for _, c := range order {
		if Supports(t, c) {
			out = append(out, c)
		}
	}
	return out
}

// TenureKind returns the period kind that carries t's primary tenure:
// employment for employable types, activation for activatable ones.
func TenureKind(t EntityType) PeriodKind {
	if Supports(t, CapActivatable) {
		return KindActivation
	}
	return KindEmployment
}
