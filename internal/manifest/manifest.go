// Package manifest loads YAML batch manifests describing extract and patch
// jobs to run in sequence.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job actions.
const (
	ActionExtract = "extract"
	ActionPatch   = "patch"
)

// Manifest is a list of jobs, run in order. Each job owns its own tree
// handle; the engine itself is single-threaded.
type Manifest struct {
	Jobs []Job `yaml:"jobs"`
}

// Job is one extract or patch run.
type Job struct {
	Action string `yaml:"action"`
	Lib    string `yaml:"lib"`              // Liberty source path
	Corner string `yaml:"corner,omitempty"` // extract: process corner
	Doc    string `yaml:"doc,omitempty"`    // patch: edit document path
	Out    string `yaml:"out"`              // output path (document or .lib)
	DB     string `yaml:"db,omitempty"`     // extract: optional snapshot archive
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s: no jobs", path)
	}
	for i := range m.Jobs {
		if err := m.Jobs[i].validate(); err != nil {
			return nil, fmt.Errorf("manifest %s: job %d: %w", path, i+1, err)
		}
	}
	return &m, nil
}

func (j *Job) validate() error {
	if j.Lib == "" {
		return fmt.Errorf("lib is required")
	}
	switch j.Action {
	case ActionExtract:
		if j.Corner == "" {
			return fmt.Errorf("extract job requires a corner")
		}
	case ActionPatch:
		if j.Doc == "" {
			return fmt.Errorf("patch job requires a doc")
		}
		if j.Out == "" {
			return fmt.Errorf("patch job requires an out path")
		}
	default:
		return fmt.Errorf("unknown action %q", j.Action)
	}
	return nil
}
