package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/charlib/internal/extract"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
	"github.com/roach88/charlib/internal/testutil"
)

func TestProjectSample(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap, err := extract.Project(lib, "TT")
	require.NoError(t, err)

	assert.Equal(t, 1.1, snap.Voltage)
	assert.Equal(t, int64(25), snap.Temperature)
	assert.Equal(t, []int{model.ProcessTT}, snap.Process)
	require.Len(t, snap.Cells, 2)

	inv := snap.FindCell("INV1")
	require.NotNil(t, inv)

	// The inout pin Z is dropped; only input A and output Y survive.
	require.Len(t, inv.InputPins, 1)
	require.Len(t, inv.OutputPins, 1)

	a := inv.InputPins[0]
	assert.Equal(t, "A", a.PinName)
	require.NotNil(t, a.Capacitance)
	assert.Equal(t, 0.0021, *a.Capacitance)
	require.NotNil(t, a.RiseCapacitance)
	assert.Equal(t, 0.0022, *a.RiseCapacitance)
	require.NotNil(t, a.FallCapacitance)
	assert.Equal(t, 0.002, *a.FallCapacitance)
	require.True(t, a.RiseCapacitanceRange.Present())
	assert.Equal(t, 0.0019, *a.RiseCapacitanceRange.Lo)
	assert.Equal(t, 0.0024, *a.RiseCapacitanceRange.Hi)
	require.True(t, a.FallCapacitanceRange.Present())

	y := inv.OutputPins[0]
	assert.Equal(t, "Y", y.PinName)
	assert.Equal(t, "!A", y.Function)

	require.Len(t, y.TimingArcs, 1)
	arc := y.TimingArcs[0]
	assert.Equal(t, "", arc.When)
	assert.Equal(t, "A", arc.RelatedPin)
	assert.Equal(t, "combinational", arc.TimingType)
	assert.Equal(t, "negative_unate", arc.TimingSense)

	require.NotNil(t, arc.CellRise)
	assert.Equal(t, []float64{0.01, 0.02}, arc.CellRise.Index1)
	assert.Equal(t, []float64{0.001, 0.002}, arc.CellRise.Index2)
	assert.Equal(t, [][]float64{{0.11, 0.12}, {0.13, 0.14}}, arc.CellRise.Values)

	require.NotNil(t, arc.CellFall)
	assert.Equal(t, [][]float64{{0.21, 0.22}, {0.23, 0.24}}, arc.CellFall.Values)

	// rise_transition is 1-D: no second axis, a single row of values.
	require.NotNil(t, arc.RiseTransition)
	assert.Nil(t, arc.RiseTransition.Index2)
	assert.Equal(t, [][]float64{{0.31, 0.32}}, arc.RiseTransition.Values)

	// Slots the source never declared stay absent.
	assert.Nil(t, arc.FallTransition)
	assert.Nil(t, arc.RiseConstraint)
	assert.Nil(t, arc.FallConstraint)

	require.Len(t, y.PowerArcs, 1)
	pw := y.PowerArcs[0]
	assert.Equal(t, "A", pw.RelatedPin)
	assert.Equal(t, "VDD", pw.RelatedPGPin)
	require.NotNil(t, pw.CellRise)
	assert.Equal(t, [][]float64{{0.41, 0.42}}, pw.CellRise.Values)
	require.NotNil(t, pw.CellFall)
	assert.Equal(t, [][]float64{{0.43, 0.44}}, pw.CellFall.Values)

	require.Len(t, inv.LeakagePower, 2)
	assert.Equal(t, 0.123, inv.LeakagePower[0].Value)
	assert.Equal(t, "!A", inv.LeakagePower[0].When)
	assert.Equal(t, "VDD", inv.LeakagePower[0].RelatedPGPin)
	assert.Equal(t, 0.456, inv.LeakagePower[1].Value)
	assert.Equal(t, "A", inv.LeakagePower[1].When)
}

func TestProjectUnknownCorner(t *testing.T) {
	lib := testutil.ParseSample(t)
	snap, err := extract.Project(lib, "typ_late")
	require.NoError(t, err)
	assert.NotNil(t, snap.Process)
	assert.Empty(t, snap.Process)
}

func TestProjectAbsentAttributesStayUnset(t *testing.T) {
	src := `library (min) {
	  cell (X) {
	    pin (A) {
	      direction : input;
	    }
	    leakage_power () {
	      when : "A";
	    }
	  }
	}`
	lib, err := liberty.Parse([]byte(src), "min.lib")
	require.NoError(t, err)
	snap, err := extract.Project(lib, "SS")
	require.NoError(t, err)

	assert.Zero(t, snap.Voltage)
	assert.Zero(t, snap.Temperature)

	cell := snap.FindCell("X")
	require.NotNil(t, cell)
	a := cell.InputPins[0]
	assert.Nil(t, a.Capacitance)
	assert.Nil(t, a.RiseCapacitance)
	assert.Nil(t, a.FallCapacitance)
	assert.Nil(t, a.RiseCapacitanceRange)
	assert.Nil(t, a.FallCapacitanceRange)

	// A leakage entry without a value attribute gets the 0 default.
	require.Len(t, cell.LeakagePower, 1)
	assert.Zero(t, cell.LeakagePower[0].Value)
	assert.Equal(t, "A", cell.LeakagePower[0].When)
}

func TestProjectDropsDirectionlessPins(t *testing.T) {
	src := `library (l) {
	  cell (X) {
	    pin (P) { capacitance : 0.1; }
	    pin (Q) { direction : internal; }
	  }
	}`
	lib, err := liberty.Parse([]byte(src), "l.lib")
	require.NoError(t, err)
	snap, err := extract.Project(lib, "TT")
	require.NoError(t, err)

	cell := snap.FindCell("X")
	require.NotNil(t, cell)
	assert.Empty(t, cell.InputPins)
	assert.Empty(t, cell.OutputPins)
}

func TestProjectMalformedNumbers(t *testing.T) {
	t.Run("simple attribute", func(t *testing.T) {
		src := `library (l) {
		  cell (X) {
		    pin (A) { direction : input; capacitance : abc; }
		  }
		}`
		lib, err := liberty.Parse([]byte(src), "l.lib")
		require.NoError(t, err)
		_, err = extract.Project(lib, "TT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not a number")
	})

	t.Run("table token", func(t *testing.T) {
		src := `library (l) {
		  cell (X) {
		    pin (Y) {
		      direction : output;
		      timing () {
		        related_pin : "A";
		        cell_rise (tmpl) {
		          index_1 ("0.01, zz");
		        }
		      }
		    }
		  }
		}`
		lib, err := liberty.Parse([]byte(src), "l.lib")
		require.NoError(t, err)
		_, err = extract.Project(lib, "TT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `malformed numeric token "zz"`)
	})
}

func TestProjectTableTokenization(t *testing.T) {
	// Rows split on in-string continuations; tokens split on commas with
	// surrounding whitespace ignored.
	src := "library (l) {\n" +
		"  cell (X) {\n" +
		"    pin (Y) {\n" +
		"      direction : output;\n" +
		"      timing () {\n" +
		"        related_pin : \"A\";\n" +
		"        cell_rise (tmpl) {\n" +
		"          index_1 (\"  0.01 ,0.02  \");\n" +
		"          values (\"1, 2 \\\n 3, 4\");\n" +
		"        }\n" +
		"      }\n" +
		"    }\n" +
		"  }\n" +
		"}\n"
	lib, err := liberty.Parse([]byte(src), "l.lib")
	require.NoError(t, err)
	snap, err := extract.Project(lib, "TT")
	require.NoError(t, err)

	arc := snap.FindCell("X").OutputPins[0].TimingArcs[0]
	require.NotNil(t, arc.CellRise)
	assert.Equal(t, []float64{0.01, 0.02}, arc.CellRise.Index1)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, arc.CellRise.Values)
}

func TestProjectSkipsUnknownGroups(t *testing.T) {
	// operating_conditions and other unrecognized group types never
	// contribute cells or abort the walk.
	lib := testutil.ParseSample(t)
	snap, err := extract.Project(lib, "TT")
	require.NoError(t, err)
	for _, c := range snap.Cells {
		assert.NotEqual(t, "tt_1p1v_25c", c.CellName)
	}
}
