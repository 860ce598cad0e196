// Package codec maps Library snapshots to and from the JSON interchange
// document. Encode and Decode are inverses modulo field omission: absent
// optionals are omitted entirely on encode and stay absent on decode.
package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/charlib/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Encode serializes a snapshot as an indented interchange document.
// Empty LUT slots are collapsed before encoding so they are omitted, not
// emitted as empty objects.
func Encode(lib *model.Library) ([]byte, error) {
	for ci := range lib.Cells {
		cell := &lib.Cells[ci]
		for pi := range cell.OutputPins {
			normalizeArcs(cell.OutputPins[pi].TimingArcs, cell.OutputPins[pi].PowerArcs)
		}
		for pi := range cell.InputPins {
			normalizeArcs(cell.InputPins[pi].TimingArcs, cell.InputPins[pi].PowerArcs)
		}
	}
	if lib.Process == nil {
		lib.Process = []int{}
	}
	if lib.Cells == nil {
		lib.Cells = []model.Cell{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lib); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeToFile serializes a snapshot and writes it to path.
func EncodeToFile(lib *model.Library, path string) error {
	data, err := Encode(lib)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

func normalizeArcs(timing []model.TimingArc, power []model.PowerArc) {
	for i := range timing {
		timing[i].Normalize()
	}
	for i := range power {
		power[i].Normalize()
	}
}

// Decode validates an interchange document against the embedded schema and
// unmarshals it into a snapshot. Omitted fields stay absent; a leakage
// entry without a value gets 0. Structural mismatches (non-object top
// level, non-array where an array is required, non-numeric table entries)
// are reported, never coerced.
func Decode(data []byte, name string) (*model.Library, error) {
	if err := validate(data, name); err != nil {
		return nil, err
	}

	lib := &model.Library{}
	if err := json.Unmarshal(data, lib); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", name, err)
	}

	for ci := range lib.Cells {
		cell := &lib.Cells[ci]
		for pi := range cell.OutputPins {
			normalizeArcs(cell.OutputPins[pi].TimingArcs, cell.OutputPins[pi].PowerArcs)
		}
		for pi := range cell.InputPins {
			pin := &cell.InputPins[pi]
			normalizeArcs(pin.TimingArcs, pin.PowerArcs)
			if !pin.RiseCapacitanceRange.Present() {
				pin.RiseCapacitanceRange = nil
			}
			if !pin.FallCapacitanceRange.Present() {
				pin.FallCapacitanceRange = nil
			}
		}
	}
	return lib, nil
}

// DecodeFile reads and decodes an interchange document.
func DecodeFile(path string) (*model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return Decode(data, path)
}

// validate unifies the document with the schema and reports every
// structural mismatch with its field path.
func validate(data []byte, name string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile interchange schema: %w", err)
	}
	doc := schema.LookupPath(cue.ParsePath("#Document"))

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return fmt.Errorf("document %s is not valid JSON: %w", name, err)
	}
	val := ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("document %s: %w", name, err)
	}

	unified := doc.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document %s does not match interchange schema:\n%s",
			name, cueerrors.Details(err, nil))
	}
	return nil
}
