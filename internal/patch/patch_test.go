package patch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/charlib/internal/extract"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
	"github.com/roach88/charlib/internal/patch"
	"github.com/roach88/charlib/internal/testutil"
)

func writeTree(t *testing.T, lib *liberty.Library) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, liberty.Write(&buf, lib.Groups[0]))
	return buf.String()
}

func reproject(t *testing.T, lib *liberty.Library) *model.Library {
	t.Helper()
	snap, err := extract.Project(lib, "TT")
	require.NoError(t, err)
	return snap
}

func TestApplyFullSnapshot(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 2, stats.CellsMatched)
	assert.Equal(t, 4, stats.PinsMatched)
	assert.Equal(t, 2, stats.TimingArcsUpdated)
	assert.Equal(t, 1, stats.PowerArcsUpdated)
	assert.Equal(t, 2, stats.LeakagesUpdated)
	assert.Zero(t, stats.AttrErrors)

	// Patching a tree with its own unmodified snapshot is the identity on
	// the extracted data.
	assert.Equal(t, snap, reproject(t, lib))
}

func TestApplyIsIdempotent(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	arc := &snap.FindCell("INV1").OutputPins[0].TimingArcs[0]
	arc.CellRise.Values = [][]float64{{0.91, 0.92}, {0.93, 0.94}}

	patch.Apply(lib, snap)
	first := writeTree(t, lib)

	relib, err := liberty.Parse([]byte(first), "patched.lib")
	require.NoError(t, err)
	patch.Apply(relib, snap)
	assert.Equal(t, first, writeTree(t, relib))
}

func TestApplyUpdatesTables(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	arc := &snap.FindCell("INV1").OutputPins[0].TimingArcs[0]
	arc.CellRise.Index1 = []float64{0.015, 0.025}
	arc.CellRise.Values = [][]float64{{1.1, 1.2}, {1.3, 1.4}}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 2, stats.TimingArcsUpdated)

	got := reproject(t, lib).FindCell("INV1").OutputPins[0].TimingArcs[0]
	require.NotNil(t, got.CellRise)
	assert.Equal(t, []float64{0.015, 0.025}, got.CellRise.Index1)
	assert.Equal(t, []float64{0.001, 0.002}, got.CellRise.Index2)
	assert.Equal(t, [][]float64{{1.1, 1.2}, {1.3, 1.4}}, got.CellRise.Values)

	// Sibling slots carried unchanged in the snapshot stay intact.
	require.NotNil(t, got.CellFall)
	assert.Equal(t, [][]float64{{0.21, 0.22}, {0.23, 0.24}}, got.CellFall.Values)
}

func TestApplyOmittedSlotErasesTable(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	// Drop the only slot of BUF1's arc from the snapshot. The matched tree
	// arc gets its table cleared, not left alone.
	arc := &snap.FindCell("BUF1").OutputPins[0].TimingArcs[0]
	require.NotNil(t, arc.CellRise)
	arc.CellRise = nil

	patch.Apply(lib, snap)

	got := reproject(t, lib).FindCell("BUF1").OutputPins[0].TimingArcs[0]
	assert.Nil(t, got.CellRise)

	// The cell_rise group itself survives; only its table attributes were
	// rewritten empty.
	out := writeTree(t, lib)
	assert.Contains(t, out, "cell_rise (delay_template_1x1)")
}

func TestApplySnapshotSlotWithoutTreeGroupIsIgnored(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	// BUF1's timing group has no cell_fall sub-group, so a snapshot-side
	// cell_fall has nowhere to land and is silently skipped.
	arc := &snap.FindCell("BUF1").OutputPins[0].TimingArcs[0]
	arc.CellFall = &model.LUT{Index1: []float64{0.01}, Values: [][]float64{{9.9}}}

	stats := patch.Apply(lib, snap)
	assert.Zero(t, stats.AttrErrors)

	got := reproject(t, lib).FindCell("BUF1").OutputPins[0].TimingArcs[0]
	assert.Nil(t, got.CellFall)
}

func TestApplyUnmatchedSnapshotLeavesTreeUntouched(t *testing.T) {
	lib := testutil.ParseSample(t)
	baseline := writeTree(t, lib)

	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "NAND2",
			OutputPins: []model.OutputPin{{
				PinName: "Y",
				TimingArcs: []model.TimingArc{{
					RelatedPin: "A",
					TimingType: "combinational",
					CellRise:   &model.LUT{Index1: []float64{1}, Values: [][]float64{{2}}},
				}},
			}},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Zero(t, stats.CellsMatched)
	assert.Zero(t, stats.PinsMatched)
	assert.Zero(t, stats.TimingArcsUpdated)
	assert.Equal(t, baseline, writeTree(t, lib))
}

func TestTimingMatchIgnoresSense(t *testing.T) {
	lib := testutil.ParseSample(t)

	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "INV1",
			OutputPins: []model.OutputPin{{
				PinName: "Y",
				TimingArcs: []model.TimingArc{{
					RelatedPin:  "A",
					TimingType:  "combinational",
					TimingSense: "positive_unate", // tree says negative_unate
					CellRise: &model.LUT{
						Index1: []float64{0.03, 0.04},
						Index2: []float64{0.003, 0.004},
						Values: [][]float64{{2.1, 2.2}, {2.3, 2.4}},
					},
				}},
			}},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.TimingArcsUpdated)

	got := reproject(t, lib).FindCell("INV1").OutputPins[0].TimingArcs[0]
	require.NotNil(t, got.CellRise)
	assert.Equal(t, [][]float64{{2.1, 2.2}, {2.3, 2.4}}, got.CellRise.Values)
	// The sense attribute itself is descriptive and never rewritten.
	assert.Equal(t, "negative_unate", got.TimingSense)
}

func TestFirstSnapshotArcWins(t *testing.T) {
	lib := testutil.ParseSample(t)

	lut := func(v float64) *model.LUT {
		return &model.LUT{
			Index1: []float64{0.01, 0.02},
			Index2: []float64{0.001, 0.002},
			Values: [][]float64{{v, v}, {v, v}},
		}
	}
	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "INV1",
			OutputPins: []model.OutputPin{{
				PinName: "Y",
				TimingArcs: []model.TimingArc{
					{RelatedPin: "A", TimingType: "combinational", CellRise: lut(5)},
					{RelatedPin: "A", TimingType: "combinational", CellRise: lut(7)},
				},
			}},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.TimingArcsUpdated)

	got := reproject(t, lib).FindCell("INV1").OutputPins[0].TimingArcs[0]
	assert.Equal(t, [][]float64{{5, 5}, {5, 5}}, got.CellRise.Values)
}

func TestCapacitanceScalarUpdatesOnlyExistingAttrs(t *testing.T) {
	lib := testutil.ParseSample(t)

	pinCap := 0.009
	riseCap := 0.008
	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "BUF1",
			InputPins: []model.InputPin{{
				PinName:         "A",
				Capacitance:     &pinCap,
				RiseCapacitance: &riseCap, // not declared in the tree
			}},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.PinsMatched)

	got := reproject(t, lib).FindCell("BUF1").InputPins[0]
	require.NotNil(t, got.Capacitance)
	assert.Equal(t, 0.009, *got.Capacitance)
	assert.Nil(t, got.RiseCapacitance)
}

func TestCapacitanceRangeRecreated(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	pin := snap.FindCell("INV1").FindInputPin("A")
	lo := 0.003
	pin.RiseCapacitanceRange = &model.CapRange{Lo: &lo} // upper bound absent

	patch.Apply(lib, snap)

	// The attribute is rebuilt from scratch with just the present bound.
	inv := lib.Groups[0].Groups()[1]
	pinA := inv.Groups()[0]
	attr, ok := pinA.FindAttr("rise_capacitance_range")
	require.True(t, ok)
	vals := attr.Values()
	require.Len(t, vals, 1)
	f, err := vals[0].Float()
	require.NoError(t, err)
	assert.Equal(t, 0.003, f)
}

func TestLeakageUpdateAndCreateValue(t *testing.T) {
	src := `library (l) {
	  cell (X) {
	    leakage_power () {
	      when : "A";
	      related_pg_pin : "VDD";
	    }
	  }
	}`
	lib, err := liberty.Parse([]byte(src), "l.lib")
	require.NoError(t, err)

	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "X",
			LeakagePower: []model.LeakagePower{
				{Value: 9.9, When: "A", RelatedPGPin: "VDD"},
			},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.LeakagesUpdated)

	// The tree entry had no value attribute; the patch creates it.
	got := reproject(t, lib).FindCell("X").LeakagePower[0]
	assert.Equal(t, 9.9, got.Value)
	assert.Equal(t, "A", got.When)
	assert.Equal(t, "VDD", got.RelatedPGPin)
}

func TestLeakageMatchRequiresFullKey(t *testing.T) {
	lib := testutil.ParseSample(t)

	snap := &model.Library{
		Cells: []model.Cell{{
			CellName: "INV1",
			LeakagePower: []model.LeakagePower{
				// Right when, wrong pg pin: no match.
				{Value: 9.9, When: "!A", RelatedPGPin: "VSS"},
			},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Zero(t, stats.LeakagesUpdated)

	got := reproject(t, lib).FindCell("INV1").LeakagePower[0]
	assert.Equal(t, 0.123, got.Value)
}

func TestPowerArcUpdate(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap := reproject(t, lib)

	arc := &snap.FindCell("INV1").OutputPins[0].PowerArcs[0]
	arc.CellRise.Values = [][]float64{{8.8, 8.9}}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.PowerArcsUpdated)

	got := reproject(t, lib).FindCell("INV1").OutputPins[0].PowerArcs[0]
	assert.Equal(t, [][]float64{{8.8, 8.9}}, got.CellRise.Values)
	assert.Equal(t, [][]float64{{0.43, 0.44}}, got.CellFall.Values)
}

func TestDirectionSelectsPinCollection(t *testing.T) {
	lib := testutil.ParseSample(t)

	// A snapshot input pin named Y must not match the tree's output pin Y.
	pinCap := 0.1
	snap := &model.Library{
		Cells: []model.Cell{{
			CellName:  "INV1",
			InputPins: []model.InputPin{{PinName: "Y", Capacitance: &pinCap}},
		}},
	}

	stats := patch.Apply(lib, snap)
	assert.Equal(t, 1, stats.CellsMatched)
	assert.Zero(t, stats.PinsMatched)
}
