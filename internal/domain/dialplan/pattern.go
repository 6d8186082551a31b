package dialplan

import (
	"fmt"
	"regexp"
)

// ScopeLevel is the administrative level a translation pattern applies at
type ScopeLevel string

const (
	ScopeLocation     ScopeLevel = "location"
	ScopeOrganization ScopeLevel = "organization"
)

// Scope selects where patterns are provisioned: a single location (with
// its resolved ID) or the whole organization.
type Scope struct {
	Level      ScopeLevel
	LocationID string
}

// LocationScope returns a location level scope
func LocationScope(locationID string) Scope {
	return Scope{Level: ScopeLocation, LocationID: locationID}
}

// OrganizationScope returns an organization level scope
func OrganizationScope() Scope {
	return Scope{Level: ScopeOrganization}
}

func (s Scope) String() string {
	if s.Level == ScopeLocation {
		return fmt.Sprintf("location(%s)", s.LocationID)
	}
	return string(ScopeOrganization)
}

// TranslationPattern is one dial-plan rule rewriting a dialed digit
// string into the carrier-mandated egress format. The desired set is
// recomputed from scratch every run; the remote store holds the only
// persistent copy.
type TranslationPattern struct {
	Name               string
	MatchPattern       string
	ReplacementPattern string
	Scope              Scope
}

// ContentEqual reports whether two patterns would provision identical
// behavior. Scope is deliberately excluded: existing patterns are always
// compared within the scope they were listed from.
func (p TranslationPattern) ContentEqual(other TranslationPattern) bool {
	return p.MatchPattern == other.MatchPattern &&
		p.ReplacementPattern == other.ReplacementPattern
}

func (p TranslationPattern) String() string {
	return fmt.Sprintf("%s: %s -> %s", p.Name, p.MatchPattern, p.ReplacementPattern)
}

// RemotePattern is the rule store's view of an existing translation
// pattern. ID is the store's opaque identifier used for update/delete.
type RemotePattern struct {
	ID string
	TranslationPattern
}

// Managed pattern names look like TP-816-HNPAL-01: home NPA, call type
// code, family index. The reconciler only ever deletes names matching
// this convention, which is what keeps unrelated remote entries safe.
var managedNameRe = regexp.MustCompile(`^TP-\d{3}-(HNPAL|FNPAL|HNPAT|FNPAT)-\d{2,}$`)

// PatternName derives the deterministic managed name for one member of a
// call type's pattern family.
func PatternName(homeNpa string, ct CallType, index int) string {
	return fmt.Sprintf("TP-%s-%s-%02d", homeNpa, ct.Code(), index)
}

// IsManagedName reports whether a remote pattern name belongs to this
// tool's managed namespace.
func IsManagedName(name string) bool {
	return managedNameRe.MatchString(name)
}
