package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/charlib/internal/codec"
	"github.com/roach88/charlib/internal/extract"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/model"
	"github.com/roach88/charlib/internal/store"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	Corner   string
	Out      string
	Database string
}

// ExtractResult is the success payload of the extract command.
type ExtractResult struct {
	Source      string  `json:"source"`
	Corner      string  `json:"corner"`
	Cells       int     `json:"cells"`
	Voltage     float64 `json:"voltage"`
	Temperature int64   `json:"temperature"`
	Out         string  `json:"out,omitempty"`
	SnapshotID  string  `json:"snapshot_id,omitempty"`
}

func (r ExtractResult) String() string {
	s := fmt.Sprintf("extracted %d cells from %s (corner %s, %gV %d°C)",
		r.Cells, r.Source, r.Corner, r.Voltage, r.Temperature)
	if r.Out != "" {
		s += fmt.Sprintf("\ndocument written to %s", r.Out)
	}
	if r.SnapshotID != "" {
		s += fmt.Sprintf("\narchived as snapshot %s", r.SnapshotID)
	}
	return s
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <liberty-file>",
		Short: "Extract characterization data into an interchange document",
		Long: `Extract timing/power arcs, leakage, and pin capacitances from a
Liberty source into a JSON interchange document.

Example:
  charlib extract sky130.lib --corner TT --out sky130.json
  charlib extract sky130.lib --corner FF --out sky130_ff.json --db snaps.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Corner, "corner", "", "process corner (SS|TT|FF)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "path for the interchange document")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional snapshot archive (SQLite)")
	_ = cmd.MarkFlagRequired("corner")

	return cmd
}

func runExtract(opts *ExtractOptions, libPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	slog.Info("parsing liberty source", "path", libPath)
	lib, err := liberty.ParseFile(libPath)
	if err != nil {
		_ = out.Error(ErrCodeSource, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read liberty source", err)
	}

	snap, err := extract.Project(lib, opts.Corner)
	if err != nil {
		_ = out.Error(ErrCodeSource, err.Error(), nil)
		return WrapExitError(ExitFailure, "extraction failed", err)
	}

	doc, err := codec.Encode(snap)
	if err != nil {
		_ = out.Error(ErrCodeDocument, err.Error(), nil)
		return WrapExitError(ExitFailure, "encoding failed", err)
	}

	result := ExtractResult{
		Source:      libPath,
		Corner:      opts.Corner,
		Cells:       len(snap.Cells),
		Voltage:     snap.Voltage,
		Temperature: snap.Temperature,
		Out:         opts.Out,
	}

	if opts.Out != "" {
		if err := codec.EncodeToFile(snap, opts.Out); err != nil {
			_ = out.Error(ErrCodeWrite, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write document", err)
		}
	}

	if opts.Database != "" {
		id, err := archiveSnapshot(opts.Database, libPath, opts.Corner, snap, doc)
		if err != nil {
			_ = out.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to archive snapshot", err)
		}
		result.SnapshotID = id
	}

	return out.Success(result)
}

func archiveSnapshot(dbPath, libPath, corner string, snap *model.Library, doc []byte) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing snapshot archive", "error", closeErr)
		}
	}()
	return st.SaveSnapshot(libPath, corner, snap.Voltage, snap.Temperature, len(snap.Cells), doc)
}
