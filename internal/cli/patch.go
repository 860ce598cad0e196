package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/charlib/internal/codec"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/patch"
)

// PatchOptions holds flags for the patch command.
type PatchOptions struct {
	*RootOptions
	Doc string
	Out string
}

// PatchResult is the success payload of the patch command.
type PatchResult struct {
	Source            string `json:"source"`
	Doc               string `json:"doc"`
	Out               string `json:"out"`
	CellsMatched      int    `json:"cells_matched"`
	PinsMatched       int    `json:"pins_matched"`
	TimingArcsUpdated int    `json:"timing_arcs_updated"`
	PowerArcsUpdated  int    `json:"power_arcs_updated"`
	LeakagesUpdated   int    `json:"leakages_updated"`
	AttrErrors        int    `json:"attr_errors"`
}

func (r PatchResult) String() string {
	return fmt.Sprintf(
		"patched %s -> %s: %d cells, %d pins, %d timing arcs, %d power arcs, %d leakages updated (%d attribute errors)",
		r.Source, r.Out, r.CellsMatched, r.PinsMatched,
		r.TimingArcsUpdated, r.PowerArcsUpdated, r.LeakagesUpdated, r.AttrErrors)
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "patch <liberty-file>",
		Short: "Apply an edited interchange document onto a Liberty source",
		Long: `Apply targeted edits from an interchange document back onto the
original Liberty source. Entities are matched by identity key; only matched
entities are rewritten, everything else is left untouched.

Example:
  charlib patch sky130.lib --doc edits.json --out sky130_patched.lib`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "edit document (JSON)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "destination Liberty file")
	_ = cmd.MarkFlagRequired("doc")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runPatch(opts *PatchOptions, libPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	snap, err := codec.DecodeFile(opts.Doc)
	if err != nil {
		_ = out.Error(ErrCodeDocument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to decode edit document", err)
	}

	slog.Info("parsing liberty source", "path", libPath)
	lib, err := liberty.ParseFile(libPath)
	if err != nil {
		_ = out.Error(ErrCodeSource, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read liberty source", err)
	}

	stats := patch.Apply(lib, snap)

	// The destination is written only after the full traversal succeeded.
	if err := liberty.WriteFile(opts.Out, lib.Groups[0]); err != nil {
		_ = out.Error(ErrCodeWrite, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write destination", err)
	}

	return out.Success(PatchResult{
		Source:            libPath,
		Doc:               opts.Doc,
		Out:               opts.Out,
		CellsMatched:      stats.CellsMatched,
		PinsMatched:       stats.PinsMatched,
		TimingArcsUpdated: stats.TimingArcsUpdated,
		PowerArcsUpdated:  stats.PowerArcsUpdated,
		LeakagesUpdated:   stats.LeakagesUpdated,
		AttrErrors:        stats.AttrErrors,
	})
}
