package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/charlib/internal/store"
)

// SnapshotsResult is the success payload of the snapshots command.
type SnapshotsResult struct {
	Database  string           `json:"database"`
	Snapshots []store.Snapshot `json:"snapshots"`
}

func (r SnapshotsResult) String() string {
	if len(r.Snapshots) == 0 {
		return fmt.Sprintf("no snapshots in %s", r.Database)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d snapshots in %s:", len(r.Snapshots), r.Database)
	for _, s := range r.Snapshots {
		fmt.Fprintf(&b, "\n  %s  %s  corner=%s  cells=%d  %s",
			s.ID, s.SourcePath, s.Corner, s.CellCount,
			s.CreatedAt.Format(time.RFC3339))
	}
	return b.String()
}

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List archived extraction snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

			st, err := store.Open(dbPath)
			if err != nil {
				_ = out.Error(ErrCodeArchive, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to open snapshot archive", err)
			}
			defer st.Close()

			snaps, err := st.ListSnapshots()
			if err != nil {
				_ = out.Error(ErrCodeArchive, err.Error(), nil)
				return WrapExitError(ExitFailure, "failed to list snapshots", err)
			}
			return out.Success(SnapshotsResult{Database: dbPath, Snapshots: snaps})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to snapshot archive (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
