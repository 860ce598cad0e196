// Package extract projects a parsed Liberty attribute tree into a Library
// snapshot. The walk is depth-first and dispatches on group-type tags;
// unrecognized group types are skipped so unknown constructs never abort an
// extraction. Absent attributes leave optionals unset; a numeric-parse
// failure inside a present attribute aborts the extraction.
package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
)

// Project builds a snapshot from every top-level group of a parsed source.
// The process corner comes from the caller, not the tree.
func Project(lib *liberty.Library, corner string) (*model.Library, error) {
	snap := &model.Library{
		PVT: model.PVT{Process: model.ProcessFromCorner(corner)},
	}
	for _, g := range lib.Groups {
		if err := projectScope(g, snap); err != nil {
			return nil, err
		}
	}
	slog.Debug("extraction complete", "cells", len(snap.Cells), "corner", corner)
	return snap, nil
}

func projectScope(scope *liberty.Group, snap *model.Library) error {
	if err := readPVT(scope, &snap.PVT); err != nil {
		return err
	}
	for _, g := range scope.Groups() {
		if g.GroupType() != "cell" {
			continue
		}
		cell, err := projectCell(g)
		if err != nil {
			return err
		}
		snap.Cells = append(snap.Cells, *cell)
	}
	return nil
}

// readPVT reads nom_voltage and nom_temperature from the library scope.
func readPVT(scope *liberty.Group, pvt *model.PVT) error {
	if attr, ok := scope.FindAttr("nom_voltage"); ok {
		v, err := attr.FloatValue()
		if err != nil {
			return fmt.Errorf("nom_voltage: %w", err)
		}
		pvt.Voltage = v
	}
	if attr, ok := scope.FindAttr("nom_temperature"); ok {
		t, err := attr.IntValue()
		if err != nil {
			return fmt.Errorf("nom_temperature: %w", err)
		}
		pvt.Temperature = t
	}
	return nil
}

func projectCell(cellGroup *liberty.Group) (*model.Cell, error) {
	cell := &model.Cell{CellName: cellGroup.Name()}

	// Pins first, then leakage entries, which sit at the same level.
	for _, g := range cellGroup.Groups() {
		if g.GroupType() != "pin" {
			continue
		}
		if err := projectPin(g, cell); err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell.CellName, err)
		}
	}
	for _, g := range cellGroup.Groups() {
		if g.GroupType() != "leakage_power" {
			continue
		}
		lp, err := projectLeakage(g)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell.CellName, err)
		}
		cell.LeakagePower = append(cell.LeakagePower, *lp)
	}
	return cell, nil
}

// projectPin dispatches on the pin's direction attribute. Pins without a
// direction, and inout/internal pins, are dropped.
func projectPin(pinGroup *liberty.Group, cell *model.Cell) error {
	dirAttr, ok := pinGroup.FindAttr("direction")
	if !ok {
		return nil
	}
	dir, err := dirAttr.StringValue()
	if err != nil {
		return err
	}
	name := pinGroup.Name()

	switch dir {
	case "output":
		pin := model.OutputPin{PinName: name}
		if attr, ok := pinGroup.FindAttr("function"); ok {
			fn, err := attr.StringValue()
			if err != nil {
				return fmt.Errorf("pin %s function: %w", name, err)
			}
			pin.Function = fn
		}
		if pin.TimingArcs, pin.PowerArcs, err = projectArcs(pinGroup); err != nil {
			return fmt.Errorf("pin %s: %w", name, err)
		}
		cell.OutputPins = append(cell.OutputPins, pin)

	case "input":
		pin := model.InputPin{PinName: name}
		if err := readCapacitances(pinGroup, &pin); err != nil {
			return fmt.Errorf("pin %s: %w", name, err)
		}
		if pin.TimingArcs, pin.PowerArcs, err = projectArcs(pinGroup); err != nil {
			return fmt.Errorf("pin %s: %w", name, err)
		}
		cell.InputPins = append(cell.InputPins, pin)
	}
	return nil
}

func readCapacitances(pinGroup *liberty.Group, pin *model.InputPin) error {
	scalars := []struct {
		attr string
		dst  **float64
	}{
		{"capacitance", &pin.Capacitance},
		{"rise_capacitance", &pin.RiseCapacitance},
		{"fall_capacitance", &pin.FallCapacitance},
	}
	for _, s := range scalars {
		attr, ok := pinGroup.FindAttr(s.attr)
		if !ok {
			continue
		}
		v, err := attr.FloatValue()
		if err != nil {
			return fmt.Errorf("%s: %w", s.attr, err)
		}
		val := v
		*s.dst = &val
	}

	ranges := []struct {
		attr string
		dst  **model.CapRange
	}{
		{"rise_capacitance_range", &pin.RiseCapacitanceRange},
		{"fall_capacitance_range", &pin.FallCapacitanceRange},
	}
	for _, r := range ranges {
		attr, ok := pinGroup.FindAttr(r.attr)
		if !ok {
			continue
		}
		vals, err := complexFloats(attr)
		if err != nil {
			return fmt.Errorf("%s: %w", r.attr, err)
		}
		if len(vals) == 2 {
			lo, hi := vals[0], vals[1]
			*r.dst = &model.CapRange{Lo: &lo, Hi: &hi}
		}
	}
	return nil
}

func projectArcs(pinGroup *liberty.Group) ([]model.TimingArc, []model.PowerArc, error) {
	var timing []model.TimingArc
	var power []model.PowerArc
	for _, g := range pinGroup.Groups() {
		switch g.GroupType() {
		case "timing":
			arc, err := projectTimingArc(g)
			if err != nil {
				return nil, nil, err
			}
			timing = append(timing, *arc)
		case "internal_power":
			arc, err := projectPowerArc(g)
			if err != nil {
				return nil, nil, err
			}
			power = append(power, *arc)
		}
	}
	return timing, power, nil
}

func projectTimingArc(arcGroup *liberty.Group) (*model.TimingArc, error) {
	arc := &model.TimingArc{}
	readString(arcGroup, "when", &arc.When)
	readString(arcGroup, "related_pin", &arc.RelatedPin)
	readString(arcGroup, "timing_type", &arc.TimingType)
	readString(arcGroup, "timing_sense", &arc.TimingSense)

	slots := map[string]**model.LUT{
		"cell_rise":       &arc.CellRise,
		"rise_transition": &arc.RiseTransition,
		"cell_fall":       &arc.CellFall,
		"fall_transition": &arc.FallTransition,
		"rise_constraint": &arc.RiseConstraint,
		"fall_constraint": &arc.FallConstraint,
	}
	for _, g := range arcGroup.Groups() {
		dst, ok := slots[g.GroupType()]
		if !ok {
			continue
		}
		lut, err := fillLUT(g)
		if err != nil {
			return nil, fmt.Errorf("timing %s: %w", g.GroupType(), err)
		}
		*dst = lut
	}
	arc.Normalize()
	return arc, nil
}

func projectPowerArc(arcGroup *liberty.Group) (*model.PowerArc, error) {
	arc := &model.PowerArc{}
	readString(arcGroup, "when", &arc.When)
	readString(arcGroup, "related_pin", &arc.RelatedPin)
	readString(arcGroup, "related_pg_pin", &arc.RelatedPGPin)

	for _, g := range arcGroup.Groups() {
		var dst **model.LUT
		switch g.GroupType() {
		case "rise_power":
			dst = &arc.CellRise
		case "fall_power":
			dst = &arc.CellFall
		default:
			continue
		}
		lut, err := fillLUT(g)
		if err != nil {
			return nil, fmt.Errorf("internal_power %s: %w", g.GroupType(), err)
		}
		*dst = lut
	}
	arc.Normalize()
	return arc, nil
}

// readString copies a simple string attribute if it exists and reads
// cleanly; otherwise the destination stays empty.
func readString(g *liberty.Group, name string, dst *string) {
	attr, ok := g.FindAttr(name)
	if !ok {
		return
	}
	if s, err := attr.StringValue(); err == nil {
		*dst = s
	}
}

// fillLUT reads index_1/index_2/values complex attributes into a table.
func fillLUT(lutGroup *liberty.Group) (*model.LUT, error) {
	lut := &model.LUT{}
	if attr, ok := lutGroup.FindAttr("index_1"); ok {
		vals, err := complexFloats(attr)
		if err != nil {
			return nil, fmt.Errorf("index_1: %w", err)
		}
		lut.Index1 = vals
	}
	if attr, ok := lutGroup.FindAttr("index_2"); ok {
		vals, err := complexFloats(attr)
		if err != nil {
			return nil, fmt.Errorf("index_2: %w", err)
		}
		lut.Index2 = vals
	}
	if attr, ok := lutGroup.FindAttr("values"); ok {
		rows, err := complexRows(attr)
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		lut.Values = rows
	}
	return lut, nil
}

// complexFloats flattens a complex attribute's values into one float
// sequence. String values are tokenized on commas and newlines.
func complexFloats(attr *liberty.Attr) ([]float64, error) {
	var out []float64
	for _, v := range attr.Values() {
		switch v.Kind {
		case liberty.StringValue:
			vals, err := tokenizeFloats(v.Str)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		case liberty.NumberValue:
			out = append(out, v.Num)
		}
	}
	return out, nil
}

// complexRows reads a complex attribute as a 2-D value block: every string
// value contributes one row per embedded line.
func complexRows(attr *liberty.Attr) ([][]float64, error) {
	var rows [][]float64
	for _, v := range attr.Values() {
		if v.Kind != liberty.StringValue {
			continue
		}
		for _, line := range strings.Split(v.Str, "\n") {
			row, err := tokenizeFloats(line)
			if err != nil {
				return nil, err
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// tokenizeFloats splits on commas and newlines, skips empty tokens, and
// parses the rest as floats.
func tokenizeFloats(s string) ([]float64, error) {
	var out []float64
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed numeric token %q", tok)
		}
		out = append(out, f)
	}
	return out, nil
}

func projectLeakage(leakGroup *liberty.Group) (*model.LeakagePower, error) {
	lp := &model.LeakagePower{}
	if attr, ok := leakGroup.FindAttr("value"); ok {
		v, err := attr.FloatValue()
		if err != nil {
			return nil, fmt.Errorf("leakage_power value: %w", err)
		}
		lp.Value = v
	}
	readString(leakGroup, "when", &lp.When)
	readString(leakGroup, "related_pg_pin", &lp.RelatedPGPin)
	return lp, nil
}
