// Package charlib extracts standard-cell characterization data (timing and
// power arcs, leakage, pin capacitances) from Liberty sources into a typed
// snapshot, serializes snapshots as JSON interchange documents, and applies
// edited documents back onto the original source, rewriting only the
// targeted attributes.
//
// Extraction and patching are single-threaded traversals over one tree
// handle each; snapshots are plain data and safe to share read-only.
package charlib

import (
	"fmt"

	"github.com/roach88/charlib/internal/codec"
	"github.com/roach88/charlib/internal/extract"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
	"github.com/roach88/charlib/internal/patch"
)

// Extract parses a Liberty source and projects it into a snapshot. The
// process corner is supplied by the caller ("SS"/"TT"/"FF"/other). If
// outPath is non-empty the encoded interchange document is also written
// there.
func Extract(libPath, corner, outPath string) (*model.Library, error) {
	lib, err := liberty.ParseFile(libPath)
	if err != nil {
		return nil, err
	}
	snap, err := extract.Project(lib, corner)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", libPath, err)
	}
	if outPath != "" {
		if err := codec.EncodeToFile(snap, outPath); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Patch decodes an edit document, applies it onto the Liberty source, and
// writes the mutated first top-level scope to outPath. The destination is
// written only after a fully successful traversal.
func Patch(libPath, docPath, outPath string) (patch.Stats, error) {
	snap, err := codec.DecodeFile(docPath)
	if err != nil {
		return patch.Stats{}, err
	}
	lib, err := liberty.ParseFile(libPath)
	if err != nil {
		return patch.Stats{}, err
	}
	stats := patch.Apply(lib, snap)
	if err := liberty.WriteFile(outPath, lib.Groups[0]); err != nil {
		return stats, err
	}
	return stats, nil
}
