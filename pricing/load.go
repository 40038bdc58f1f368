package pricing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a heuristic from a YAML file. Fields left out of the file keep
// the values of Default; a file that lists regions replaces the whole table.
func Load(path string) (*Heuristic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read %s: %w", path, err)
	}

	h := Default()
	h.Version = ""
	h.Regions = nil
	if err := yaml.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("pricing: parse %s: %w", path, err)
	}
	if len(h.Regions) == 0 {
		h.Regions = append([]Region(nil), NCRRegions...)
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("pricing: %s: %w", path, err)
	}
	return h, nil
}

// Validate checks that the heuristic is versioned and its rates and boxes
// are consistent.
func (h *Heuristic) Validate() error {
	if h.Version == "" {
		return errors.New("heuristic version is required")
	}
	if h.MinRate <= 0 || h.MaxRate < h.MinRate {
		return fmt.Errorf("invalid clamp band [%v, %v]", h.MinRate, h.MaxRate)
	}
	if h.DefaultRate <= 0 {
		return fmt.Errorf("invalid default rate %v", h.DefaultRate)
	}
	for i, r := range h.Regions {
		if r.Name == "" {
			return fmt.Errorf("region %d has no name", i)
		}
		if r.MinLat > r.MaxLat || r.MinLon > r.MaxLon {
			return fmt.Errorf("region %q has an empty box", r.Name)
		}
		if r.Rate <= 0 {
			return fmt.Errorf("region %q has rate %v", r.Name, r.Rate)
		}
	}
	return nil
}
