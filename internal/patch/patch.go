// Package patch applies an edited Library snapshot back onto the original
// attribute tree. Matching is top-down by identity key, first match wins,
// update-only: tree entities without a snapshot match are left untouched,
// snapshot entities without a tree match are ignored. Individual attribute
// mutation failures are logged and skipped; they never abort the pass.
package patch

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
)

// Stats counts what a patch pass touched. Lookup misses and per-attribute
// failures are silent no-ops by design; the counters surface them.
type Stats struct {
	CellsMatched      int
	PinsMatched       int
	LeakagesUpdated   int
	TimingArcsUpdated int
	PowerArcsUpdated  int
	AttrErrors        int
}

// Apply rewrites every entity present in both the snapshot and the tree.
func Apply(lib *liberty.Library, snap *model.Library) Stats {
	e := &engine{snap: snap}
	for _, scope := range lib.Groups {
		e.applyScope(scope)
	}
	slog.Debug("patch pass complete",
		"cells", e.stats.CellsMatched,
		"pins", e.stats.PinsMatched,
		"timing_arcs", e.stats.TimingArcsUpdated,
		"power_arcs", e.stats.PowerArcsUpdated,
		"leakages", e.stats.LeakagesUpdated,
		"attr_errors", e.stats.AttrErrors)
	return e.stats
}

type engine struct {
	snap  *model.Library
	stats Stats
}

func (e *engine) applyScope(scope *liberty.Group) {
	for _, cellGroup := range scope.Groups() {
		if cellGroup.GroupType() != "cell" {
			continue
		}
		name := cellGroup.Name()
		if name == "" {
			continue
		}
		cell := e.snap.FindCell(name)
		if cell == nil {
			continue
		}
		e.stats.CellsMatched++
		e.updateLeakages(cellGroup, cell)
		e.updatePins(cellGroup, cell)
	}
}

func (e *engine) updatePins(cellGroup *liberty.Group, cell *model.Cell) {
	for _, pinGroup := range cellGroup.Groups() {
		if pinGroup.GroupType() != "pin" {
			continue
		}
		name := pinGroup.Name()
		if name == "" {
			continue
		}
		dir := readString(pinGroup, "direction")

		// Direction selects which collection to search; the match itself
		// is by pin name.
		switch dir {
		case "input":
			pin := cell.FindInputPin(name)
			if pin == nil {
				continue
			}
			e.stats.PinsMatched++
			e.updateInputCapacitance(pinGroup, pin)
			e.updateTimingArcs(pinGroup, pin.TimingArcs)
			e.updatePowerArcs(pinGroup, pin.PowerArcs)
		case "output":
			pin := cell.FindOutputPin(name)
			if pin == nil {
				continue
			}
			e.stats.PinsMatched++
			e.updateTimingArcs(pinGroup, pin.TimingArcs)
			e.updatePowerArcs(pinGroup, pin.PowerArcs)
		}
	}
}

// updateLeakages re-walks leakage_power groups, reconstructs each group's
// identity key from its current attributes, and overwrites matched entries
// in place.
func (e *engine) updateLeakages(cellGroup *liberty.Group, cell *model.Cell) {
	for _, g := range cellGroup.Groups() {
		if g.GroupType() != "leakage_power" {
			continue
		}
		key := model.LeakageKey{
			When:         readString(g, "when"),
			RelatedPGPin: readString(g, "related_pg_pin"),
		}
		for i := range cell.LeakagePower {
			lp := &cell.LeakagePower[i]
			if lp.Key() != key {
				continue
			}
			e.setFloat(g, "value", lp.Value)
			if lp.When != "" {
				e.setString(g, "when", lp.When)
			}
			if lp.RelatedPGPin != "" {
				e.setString(g, "related_pg_pin", lp.RelatedPGPin)
			}
			e.stats.LeakagesUpdated++
			break
		}
	}
}

// updateInputCapacitance overwrites capacitance scalars and ranges. A
// scalar is written only when the snapshot carries it AND the attribute
// already exists in the tree; ranges are recreated from scratch when
// either bound is present.
func (e *engine) updateInputCapacitance(pinGroup *liberty.Group, pin *model.InputPin) {
	scalars := []struct {
		attr string
		val  *float64
	}{
		{"capacitance", pin.Capacitance},
		{"rise_capacitance", pin.RiseCapacitance},
		{"fall_capacitance", pin.FallCapacitance},
	}
	for _, s := range scalars {
		if s.val == nil {
			continue
		}
		attr, ok := pinGroup.FindAttr(s.attr)
		if !ok {
			continue
		}
		if err := attr.SetFloatValue(*s.val); err != nil {
			e.attrError(s.attr, err)
		}
	}

	ranges := []struct {
		attr string
		val  *model.CapRange
	}{
		{"rise_capacitance_range", pin.RiseCapacitanceRange},
		{"fall_capacitance_range", pin.FallCapacitanceRange},
	}
	for _, r := range ranges {
		if !r.val.Present() {
			continue
		}
		attr, err := recreateComplexAttr(pinGroup, r.attr)
		if err != nil {
			e.attrError(r.attr, err)
			continue
		}
		if r.val.Lo != nil {
			if err := attr.AddFloatValue(*r.val.Lo); err != nil {
				e.attrError(r.attr, err)
			}
		}
		if r.val.Hi != nil {
			if err := attr.AddFloatValue(*r.val.Hi); err != nil {
				e.attrError(r.attr, err)
			}
		}
	}
}

func (e *engine) updateTimingArcs(pinGroup *liberty.Group, arcs []model.TimingArc) {
	for _, g := range pinGroup.Groups() {
		if g.GroupType() != "timing" {
			continue
		}
		key := model.TimingArcKey{
			When:       readString(g, "when"),
			RelatedPin: readString(g, "related_pin"),
			TimingType: readString(g, "timing_type"),
		}
		for i := range arcs {
			if arcs[i].Key() != key {
				continue
			}
			// Every slot is rewritten, an empty snapshot slot included:
			// omitting a slot from the document erases it in the tree.
			e.writeLUT(g, "cell_rise", arcs[i].CellRise)
			e.writeLUT(g, "rise_transition", arcs[i].RiseTransition)
			e.writeLUT(g, "cell_fall", arcs[i].CellFall)
			e.writeLUT(g, "fall_transition", arcs[i].FallTransition)
			e.writeLUT(g, "rise_constraint", arcs[i].RiseConstraint)
			e.writeLUT(g, "fall_constraint", arcs[i].FallConstraint)
			e.stats.TimingArcsUpdated++
			break
		}
	}
}

func (e *engine) updatePowerArcs(pinGroup *liberty.Group, arcs []model.PowerArc) {
	for _, g := range pinGroup.Groups() {
		if g.GroupType() != "internal_power" {
			continue
		}
		key := model.PowerArcKey{
			When:         readString(g, "when"),
			RelatedPin:   readString(g, "related_pin"),
			RelatedPGPin: readString(g, "related_pg_pin"),
		}
		for i := range arcs {
			if arcs[i].Key() != key {
				continue
			}
			e.writeLUT(g, "rise_power", arcs[i].CellRise)
			e.writeLUT(g, "fall_power", arcs[i].CellFall)
			e.stats.PowerArcsUpdated++
			break
		}
	}
}

// writeLUT rewrites the index_1/index_2/values attributes of every
// sub-group of the given type: the old complex attributes are deleted and
// recreated, index axes written as one comma-joined string, value rows one
// string per row. index_2 is written only when non-empty.
func (e *engine) writeLUT(arcGroup *liberty.Group, lutType string, lut *model.LUT) {
	for _, g := range arcGroup.Groups() {
		if g.GroupType() != lutType {
			continue
		}

		idx1, err := recreateComplexAttr(g, "index_1")
		if err != nil {
			e.attrError(lutType+".index_1", err)
		} else if err := idx1.AddStringValue(joinFloats(lutIndex1(lut))); err != nil {
			e.attrError(lutType+".index_1", err)
		}

		if lut != nil && len(lut.Index2) > 0 {
			idx2, err := recreateComplexAttr(g, "index_2")
			if err != nil {
				e.attrError(lutType+".index_2", err)
			} else if err := idx2.AddStringValue(joinFloats(lut.Index2)); err != nil {
				e.attrError(lutType+".index_2", err)
			}
		}

		vals, err := recreateComplexAttr(g, "values")
		if err != nil {
			e.attrError(lutType+".values", err)
			continue
		}
		if lut == nil {
			continue
		}
		for _, row := range lut.Values {
			if err := vals.AddStringValue(joinFloats(row)); err != nil {
				e.attrError(lutType+".values", err)
			}
		}
	}
}

func (e *engine) setFloat(g *liberty.Group, name string, v float64) {
	attr, ok := g.FindAttr(name)
	if !ok {
		var err error
		attr, err = g.CreateSimpleAttr(name)
		if err != nil {
			e.attrError(name, err)
			return
		}
	}
	if err := attr.SetFloatValue(v); err != nil {
		e.attrError(name, err)
	}
}

func (e *engine) setString(g *liberty.Group, name, v string) {
	attr, ok := g.FindAttr(name)
	if !ok {
		var err error
		attr, err = g.CreateSimpleAttr(name)
		if err != nil {
			e.attrError(name, err)
			return
		}
	}
	if err := attr.SetStringValue(v); err != nil {
		e.attrError(name, err)
	}
}

func (e *engine) attrError(attr string, err error) {
	slog.Warn("attribute update failed, skipping", "attr", attr, "error", err)
	e.stats.AttrErrors++
}

// recreateComplexAttr deletes any existing attribute of the given name and
// creates it fresh as a complex attribute.
func recreateComplexAttr(g *liberty.Group, name string) (*liberty.Attr, error) {
	if _, ok := g.FindAttr(name); ok {
		if err := g.DeleteAttr(name); err != nil {
			return nil, err
		}
	}
	return g.CreateComplexAttr(name)
}

// readString reads a simple attribute as a string, or "" when absent.
func readString(g *liberty.Group, name string) string {
	attr, ok := g.FindAttr(name)
	if !ok {
		return ""
	}
	s, err := attr.StringValue()
	if err != nil {
		return ""
	}
	return s
}

func lutIndex1(lut *model.LUT) []float64 {
	if lut == nil {
		return nil
	}
	return lut.Index1
}

// joinFloats renders floats as a comma-joined string using the shortest
// round-trip representation.
func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}
