package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/charlib/internal/codec"
	"github.com/roach88/charlib/internal/extract"
	"github.com/roach88/charlib/internal/liberty"
	"github.com/roach88/charlib/internal/manifest"
	"github.com/roach88/charlib/internal/patch"
)

// BatchResult is the success payload of the batch command.
type BatchResult struct {
	Manifest string `json:"manifest"`
	Jobs     int    `json:"jobs"`
}

func (r BatchResult) String() string {
	return fmt.Sprintf("batch %s: %d jobs completed", r.Manifest, r.Jobs)
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Run extract/patch jobs from a YAML manifest",
		Long: `Run a sequence of extract and patch jobs described by a YAML
manifest. Jobs run in order and the batch stops at the first failure.

Example manifest:
  jobs:
    - action: extract
      lib: sky130.lib
      corner: TT
      out: sky130.json
    - action: patch
      lib: sky130.lib
      doc: edits.json
      out: sky130_patched.lib`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runBatch(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

	m, err := manifest.Load(path)
	if err != nil {
		_ = out.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	for i, job := range m.Jobs {
		slog.Info("running batch job", "job", i+1, "action", job.Action, "lib", job.Lib)
		if err := runJob(job); err != nil {
			_ = out.Error(ErrCodeGeneric, fmt.Sprintf("job %d (%s %s): %v", i+1, job.Action, job.Lib, err), nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("batch job %d failed", i+1), err)
		}
	}

	return out.Success(BatchResult{Manifest: path, Jobs: len(m.Jobs)})
}

func runJob(job manifest.Job) error {
	switch job.Action {
	case manifest.ActionExtract:
		lib, err := liberty.ParseFile(job.Lib)
		if err != nil {
			return err
		}
		snap, err := extract.Project(lib, job.Corner)
		if err != nil {
			return err
		}
		doc, err := codec.Encode(snap)
		if err != nil {
			return err
		}
		if job.Out != "" {
			if err := codec.EncodeToFile(snap, job.Out); err != nil {
				return err
			}
		}
		if job.DB != "" {
			if _, err := archiveSnapshot(job.DB, job.Lib, job.Corner, snap, doc); err != nil {
				return err
			}
		}
		return nil

	case manifest.ActionPatch:
		snap, err := codec.DecodeFile(job.Doc)
		if err != nil {
			return err
		}
		lib, err := liberty.ParseFile(job.Lib)
		if err != nil {
			return err
		}
		patch.Apply(lib, snap)
		return liberty.WriteFile(job.Out, lib.Groups[0])
	}
	return fmt.Errorf("unknown action %q", job.Action)
}
