// Package catalog exposes the variation catalog of the Mek collection.
//
// A copy of the catalog is embedded in the binary; Load reads an override
// file (YAML or JSON, by extension) with the same shape.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mektycoon/mekforge/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed variations.yaml
var embedded []byte

// document is the on-disk layout shared by the YAML and JSON forms.
type document struct {
	Variations []domain.Variation `json:"variations" yaml:"variations"`
}

// Default returns the embedded catalog.
func Default() ([]domain.Variation, error) {
	vars, err := Parse(embedded, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return vars, nil
}

// Load reads a catalog file. An empty path returns the embedded catalog.
func Load(path string) ([]domain.Variation, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	vars, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return vars, nil
}

// Parse decodes catalog data. ext selects the decoder: ".json" for JSON,
// anything else for YAML. A bare JSON array of variations is accepted too.
func Parse(data []byte, ext string) ([]domain.Variation, error) {
	var doc document
	switch strings.ToLower(ext) {
	case ".json":
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal(data, &doc.Variations); err != nil {
				return nil, err
			}
			break
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return normalize(doc.Variations)
}

func normalize(vars []domain.Variation) ([]domain.Variation, error) {
	out := make([]domain.Variation, 0, len(vars))
	for i, v := range vars {
		t, err := domain.ParseVariationType(string(v.Type))
		if err != nil {
			return nil, fmt.Errorf("variation %d (%s): %w", i, v.Name, err)
		}
		v.Type = t
		out = append(out, v)
	}
	return out, nil
}

// Filter returns the variations of type t, keeping catalog order.
func Filter(vars []domain.Variation, t domain.VariationType) []domain.Variation {
	var out []domain.Variation
	for _, v := range vars {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return out
}

// Counts returns the number of variations per type.
func Counts(vars []domain.Variation) map[domain.VariationType]int {
	counts := make(map[domain.VariationType]int, 3)
	for _, v := range vars {
		counts[v.Type]++
	}
	return counts
}

// ByRank returns a copy of vars sorted by ascending rank, rarest first.
// Variations without a rank sort last, ties broken by ID.
func ByRank(vars []domain.Variation) []domain.Variation {
	out := append([]domain.Variation(nil), vars...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if (ri == 0) != (rj == 0) {
			return rj == 0
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
