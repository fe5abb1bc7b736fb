// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// exportLimit bounds how many reviews a single export pulls.
const exportLimit = 100000

// ExportYAML writes the reviews matching opts to path as YAML and
// returns how many were written.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing export file: %w", err)
	}
	return len(entries), nil
}

// ExportJSON writes the reviews matching opts to path as indented JSON
// and returns how many were written.
func (s *Store) ExportJSON(ctx context.Context, path string, opts QueryOptions) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing export file: %w", err)
	}
	return len(entries), nil
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]StoredReview, error) {
	opts.MaxResults = exportLimit
	return s.Retrieve(ctx, opts)
}
