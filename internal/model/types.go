package model

// PVT is the process/voltage/temperature operating point of one
// characterization run. Process encodes the corner as a small integer
// sequence (SS=1, TT=2, FF=3); an unrecognized corner is empty.
type PVT struct {
	Voltage     float64 `json:"voltage"`
	Temperature int64   `json:"temperature"`
	Process     []int   `json:"process"`
}

// LUT is a 1-D or 2-D numeric lookup table. Values is row-major: row count
// corresponds to Index1 and row length to Index2, but the model does not
// enforce the correspondence. 1-D tables carry only Index1 and Values.
type LUT struct {
	Index1 []float64   `json:"index1,omitempty"`
	Index2 []float64   `json:"index2,omitempty"`
	Values [][]float64 `json:"values,omitempty"`
}

// Empty reports whether no field of the table is populated. A nil LUT is
// empty. An arc slot is present iff its table is non-empty.
func (l *LUT) Empty() bool {
	return l == nil || (len(l.Index1) == 0 && len(l.Index2) == 0 && len(l.Values) == 0)
}

// orNil collapses an empty table to a nil pointer so encoding omits the
// slot entirely.
func (l *LUT) orNil() *LUT {
	if l.Empty() {
		return nil
	}
	return l
}

// TimingArc is one timing relationship on a pin. Identity is
// (when, related_pin, timing_type); timing_sense is descriptive only.
type TimingArc struct {
	When        string `json:"when,omitempty"`
	RelatedPin  string `json:"related_pin,omitempty"`
	TimingType  string `json:"timing_type,omitempty"`
	TimingSense string `json:"timing_sense,omitempty"`

	CellRise       *LUT `json:"cell_rise,omitempty"`
	RiseTransition *LUT `json:"rise_transition,omitempty"`
	CellFall       *LUT `json:"cell_fall,omitempty"`
	FallTransition *LUT `json:"fall_transition,omitempty"`
	RiseConstraint *LUT `json:"rise_constraint,omitempty"`
	FallConstraint *LUT `json:"fall_constraint,omitempty"`
}

// Normalize collapses empty LUT slots to nil so presence checks and
// encoding agree.
func (a *TimingArc) Normalize() {
	a.CellRise = a.CellRise.orNil()
	a.RiseTransition = a.RiseTransition.orNil()
	a.CellFall = a.CellFall.orNil()
	a.FallTransition = a.FallTransition.orNil()
	a.RiseConstraint = a.RiseConstraint.orNil()
	a.FallConstraint = a.FallConstraint.orNil()
}

// PowerArc is one internal power relationship on a pin. Identity is
// (when, related_pin, related_pg_pin). CellRise serializes as rise_power's
// table under the wire name cell_rise, mirroring the interchange schema.
type PowerArc struct {
	When         string `json:"when,omitempty"`
	RelatedPin   string `json:"related_pin,omitempty"`
	RelatedPGPin string `json:"related_pg_pin,omitempty"`

	CellRise *LUT `json:"cell_rise,omitempty"`
	CellFall *LUT `json:"cell_fall,omitempty"`
}

// Normalize collapses empty LUT slots to nil.
func (a *PowerArc) Normalize() {
	a.CellRise = a.CellRise.orNil()
	a.CellFall = a.CellFall.orNil()
}

// LeakagePower is one leakage condition of a cell. Identity is
// (when, related_pg_pin). Value is a non-optional scalar and defaults to 0.
type LeakagePower struct {
	Value        float64 `json:"value"`
	When         string  `json:"when,omitempty"`
	RelatedPGPin string  `json:"related_pg_pin,omitempty"`
}

// OutputPin is a pin with direction "output".
type OutputPin struct {
	PinName    string      `json:"pin_name"`
	Function   string      `json:"function,omitempty"`
	TimingArcs []TimingArc `json:"timing_arcs,omitempty"`
	PowerArcs  []PowerArc  `json:"power_arcs,omitempty"`
}

// InputPin is a pin with direction "input". All capacitance fields are
// optional: a nil pointer means the source did not carry the attribute.
type InputPin struct {
	PinName              string    `json:"pin_name"`
	Capacitance          *float64  `json:"capacitance,omitempty"`
	RiseCapacitance      *float64  `json:"rise_capacitance,omitempty"`
	FallCapacitance      *float64  `json:"fall_capacitance,omitempty"`
	RiseCapacitanceRange *CapRange `json:"rise_capacitance_range,omitempty"`
	FallCapacitanceRange *CapRange `json:"fall_capacitance_range,omitempty"`

	TimingArcs []TimingArc `json:"timing_arcs,omitempty"`
	PowerArcs  []PowerArc  `json:"power_arcs,omitempty"`
}

// Cell is one standard cell: its pins and leakage conditions in source
// order. A cell may legally carry several leakage_power entries.
type Cell struct {
	CellName     string         `json:"cell_name"`
	OutputPins   []OutputPin    `json:"output_pins,omitempty"`
	InputPins    []InputPin     `json:"input_pins,omitempty"`
	LeakagePower []LeakagePower `json:"leakage_power,omitempty"`
}

// Library is one extracted snapshot: the PVT point plus every cell, built
// once per extraction or decode and discarded after use. The embedded PVT
// flattens into the top level of the interchange document.
type Library struct {
	PVT
	Cells []Cell `json:"cells"`
}

// FindCell returns the first cell with the given name, or nil.
func (l *Library) FindCell(name string) *Cell {
	for i := range l.Cells {
		if l.Cells[i].CellName == name {
			return &l.Cells[i]
		}
	}
	return nil
}

// FindInputPin returns the first input pin with the given name, or nil.
func (c *Cell) FindInputPin(name string) *InputPin {
	for i := range c.InputPins {
		if c.InputPins[i].PinName == name {
			return &c.InputPins[i]
		}
	}
	return nil
}

// FindOutputPin returns the first output pin with the given name, or nil.
func (c *Cell) FindOutputPin(name string) *OutputPin {
	for i := range c.OutputPins {
		if c.OutputPins[i].PinName == name {
			return &c.OutputPins[i]
		}
	}
	return nil
}
