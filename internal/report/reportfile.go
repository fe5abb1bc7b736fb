// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-radar/pkg/types"
)

// RunFile is the on-disk representation of one pipeline run: the
// assembled report plus the corpus behind it. A saved run can be
// re-rendered or inspected later without pulling providers again.
type RunFile struct {
	Report  types.SummaryReport     `yaml:"report"`
	Reviews []types.CanonicalReview `yaml:"reviews,omitempty"`
}

// WriteRunFile saves the report and its corpus to a YAML file.
func WriteRunFile(path string, rep types.SummaryReport, reviews []types.CanonicalReview) error {
	rf := RunFile{
		Report:  rep,
		Reviews: reviews,
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously saved run from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}
