// Package testutil provides shared fixtures for tests: a small but
// representative Liberty source and a matching snapshot builder.
package testutil

import (
	"testing"

	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
)

// SampleLib is a two-cell Liberty source covering the constructs the
// projector and patch engine care about: input/output/inout pins,
// capacitance scalars and ranges, 1-D and 2-D tables, internal power,
// multiple leakage conditions, and group types that must be skipped.
const SampleLib = `/* demo library */
library (demo) {
  nom_voltage : 1.1;
  nom_temperature : 25;
  operating_conditions (tt_1p1v_25c) {
    process : 1;
  }
  cell (INV1) {
    area : 1.2;
    pin (A) {
      direction : input;
      capacitance : 0.0021;
      rise_capacitance : 0.0022;
      fall_capacitance : 0.002;
      rise_capacitance_range (0.0019, 0.0024);
      fall_capacitance_range (0.0018, 0.0023);
    }
    pin (Y) {
      direction : output;
      function : "!A";
      timing () {
        related_pin : "A";
        timing_type : "combinational";
        timing_sense : "negative_unate";
        cell_rise (delay_template_2x2) {
          index_1 ("0.01, 0.02");
          index_2 ("0.001, 0.002");
          values ( \
            "0.11, 0.12", \
            "0.13, 0.14" \
          );
        }
        cell_fall (delay_template_2x2) {
          index_1 ("0.01, 0.02");
          index_2 ("0.001, 0.002");
          values ( \
            "0.21, 0.22", \
            "0.23, 0.24" \
          );
        }
        rise_transition (delay_template_2x1) {
          index_1 ("0.01, 0.02");
          values ("0.31, 0.32");
        }
      }
      internal_power () {
        related_pin : "A";
        related_pg_pin : "VDD";
        rise_power (power_template_2x1) {
          index_1 ("0.01, 0.02");
          values ("0.41, 0.42");
        }
        fall_power (power_template_2x1) {
          index_1 ("0.01, 0.02");
          values ("0.43, 0.44");
        }
      }
    }
    pin (Z) {
      direction : inout;
      capacitance : 0.005;
    }
    leakage_power () {
      value : 0.123;
      when : "!A";
      related_pg_pin : "VDD";
    }
    leakage_power () {
      value : 0.456;
      when : "A";
      related_pg_pin : "VDD";
    }
  }
  cell (BUF1) {
    pin (A) {
      direction : input;
      capacitance : 0.004;
    }
    pin (Y) {
      direction : output;
      function : "A";
      timing () {
        related_pin : "A";
        timing_type : "combinational";
        cell_rise (delay_template_1x1) {
          index_1 ("0.01");
          values ("0.5");
        }
      }
    }
  }
}
`

// ParseSample parses SampleLib, failing the test on error.
func ParseSample(t *testing.T) *liberty.Library {
	t.Helper()
	lib, err := liberty.Parse([]byte(SampleLib), "sample.lib")
	if err != nil {
		t.Fatalf("parse sample lib: %v", err)
	}
	return lib
}

// SmallSnapshot returns a minimal snapshot with one cell, one input pin,
// and one leakage entry. Used for golden encoding tests.
func SmallSnapshot() *model.Library {
	pinCap := 0.002
	return &model.Library{
		PVT: model.PVT{
			Voltage:     1.1,
			Temperature: 25,
			Process:     model.ProcessFromCorner("TT"),
		},
		Cells: []model.Cell{
			{
				CellName: "INV1",
				InputPins: []model.InputPin{
					{PinName: "A", Capacitance: &pinCap},
				},
				LeakagePower: []model.LeakagePower{
					{Value: 0.123, When: "!A"},
				},
			},
		},
	}
}
