package model

import "encoding/json"

// CapRange is a capacitance range with independently optional bounds.
// On the wire it is a two-element array; a missing bound serializes as 0.
type CapRange struct {
	Lo *float64
	Hi *float64
}

// Present reports whether either bound is set.
func (r *CapRange) Present() bool {
	return r != nil && (r.Lo != nil || r.Hi != nil)
}

// MarshalJSON encodes the range as [lo, hi], substituting 0 for a missing
// bound.
func (r CapRange) MarshalJSON() ([]byte, error) {
	lo, hi := 0.0, 0.0
	if r.Lo != nil {
		lo = *r.Lo
	}
	if r.Hi != nil {
		hi = *r.Hi
	}
	return json.Marshal([2]float64{lo, hi})
}

// UnmarshalJSON decodes a numeric array. Arrays that are not exactly two
// elements long leave the range unset rather than failing the document.
func (r *CapRange) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != 2 {
		return nil
	}
	lo, hi := vals[0], vals[1]
	r.Lo, r.Hi = &lo, &hi
	return nil
}
