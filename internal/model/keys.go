package model

// Identity keys are comparable structs so matching is plain == and adding
// a key field is a one-line change. Descriptive fields (timing_sense) stay
// out of the key on purpose: two timing arcs that differ only in sense are
// treated as the same arc, and matching picks the first.

// TimingArcKey identifies a timing arc within a pin.
type TimingArcKey struct {
	When       string
	RelatedPin string
	TimingType string
}

// Key returns the arc's identity key.
func (a *TimingArc) Key() TimingArcKey {
	return TimingArcKey{When: a.When, RelatedPin: a.RelatedPin, TimingType: a.TimingType}
}

// PowerArcKey identifies a power arc within a pin.
type PowerArcKey struct {
	When         string
	RelatedPin   string
	RelatedPGPin string
}

// Key returns the arc's identity key.
func (a *PowerArc) Key() PowerArcKey {
	return PowerArcKey{When: a.When, RelatedPin: a.RelatedPin, RelatedPGPin: a.RelatedPGPin}
}

// LeakageKey identifies a leakage_power entry within a cell.
type LeakageKey struct {
	When         string
	RelatedPGPin string
}

// Key returns the entry's identity key.
func (l *LeakagePower) Key() LeakageKey {
	return LeakageKey{When: l.When, RelatedPGPin: l.RelatedPGPin}
}

// Process corner encoding.
const (
	ProcessSS = 1
	ProcessTT = 2
	ProcessFF = 3
)

// ProcessFromCorner maps a corner name to its integer-sequence encoding.
// Unrecognized corners map to an empty sequence.
func ProcessFromCorner(corner string) []int {
	switch corner {
	case "SS":
		return []int{ProcessSS}
	case "TT":
		return []int{ProcessTT}
	case "FF":
		return []int{ProcessFF}
	}
	return []int{}
}
