package dialplan

import "fmt"

// CallType classifies a destination NPA/NXX relative to the home NPA/NXX.
// Exactly four variants exist: home vs foreign NPA crossed with local vs
// toll rating.
type CallType string

const (
	CallTypeHomeLocal    CallType = "hnpa_local"
	CallTypeForeignLocal CallType = "fnpa_local"
	CallTypeHomeToll     CallType = "hnpa_toll"
	CallTypeForeignToll  CallType = "fnpa_toll"
)

// AllCallTypes lists the four variants in canonical order. Pattern family
// numbering and reporting iterate in this order, so it must stay stable.
var AllCallTypes = []CallType{
	CallTypeHomeLocal,
	CallTypeForeignLocal,
	CallTypeHomeToll,
	CallTypeForeignToll,
}

// Short codes used in pattern names
var callTypeCodes = map[CallType]string{
	CallTypeHomeLocal:    "HNPAL",
	CallTypeForeignLocal: "FNPAL",
	CallTypeHomeToll:     "HNPAT",
	CallTypeForeignToll:  "FNPAT",
}

var callTypeDisplayNames = map[CallType]string{
	CallTypeHomeLocal:    "HNPA local",
	CallTypeForeignLocal: "FNPA local",
	CallTypeHomeToll:     "HNPA toll",
	CallTypeForeignToll:  "FNPA toll",
}

// CallTypeFor determines the call type of a destination relative to the
// home NPA. Every (homeNPA, destination) combination maps to exactly one
// variant.
func CallTypeFor(homeNpa string, record LocalityRecord) CallType {
	home := record.NpaNxx.Npa() == homeNpa
	switch {
	case home && !record.IsToll:
		return CallTypeHomeLocal
	case !home && !record.IsToll:
		return CallTypeForeignLocal
	case home && record.IsToll:
		return CallTypeHomeToll
	default:
		return CallTypeForeignToll
	}
}

// Code returns the short code used in managed pattern names
func (c CallType) Code() string {
	return callTypeCodes[c]
}

// DisplayName returns a human readable name
func (c CallType) DisplayName() string {
	if name, ok := callTypeDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// IsValid checks whether the value is one of the four variants
func (c CallType) IsValid() bool {
	_, ok := callTypeCodes[c]
	return ok
}

func (c CallType) String() string {
	return string(c)
}

// CallTypeFromCode resolves a short code back to its call type
func CallTypeFromCode(code string) (CallType, error) {
	for ct, c := range callTypeCodes {
		if c == code {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown call type code: %s", code)
}
