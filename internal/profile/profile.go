// Package profile holds filament temperature windows. Built-in
// profiles cover the common materials; user profiles loaded from a
// YAML file override or extend them. The minimum nozzle temperature of
// the chosen profile feeds the cold-extrusion threshold.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Filament is the recommended temperature window for one material.
type Filament struct {
	Name          string  `yaml:"name" json:"name"`
	MinNozzleTemp float64 `yaml:"min_nozzle_temp" json:"min_nozzle_temp"`
	MaxNozzleTemp float64 `yaml:"max_nozzle_temp" json:"max_nozzle_temp"`
	MinBedTemp    float64 `yaml:"min_bed_temp" json:"min_bed_temp"`
	MaxBedTemp    float64 `yaml:"max_bed_temp" json:"max_bed_temp"`
}

// builtin profiles, keyed by upper-case material name.
var builtin = map[string]Filament{
	"PLA":  {Name: "PLA", MinNozzleTemp: 180, MaxNozzleTemp: 220, MinBedTemp: 50, MaxBedTemp: 70},
	"ABS":  {Name: "ABS", MinNozzleTemp: 230, MaxNozzleTemp: 260, MinBedTemp: 90, MaxBedTemp: 110},
	"PETG": {Name: "PETG", MinNozzleTemp: 220, MaxNozzleTemp: 250, MinBedTemp: 70, MaxBedTemp: 90},
	"TPU":  {Name: "TPU", MinNozzleTemp: 210, MaxNozzleTemp: 230, MinBedTemp: 30, MaxBedTemp: 60},
}

// Store resolves filament names to profiles. The zero value serves the
// built-ins only.
type Store struct {
	custom map[string]Filament
}

// NewStore returns a store with only the built-in profiles.
func NewStore() *Store {
	return &Store{custom: map[string]Filament{}}
}

// LoadFile merges profiles from a YAML file into the store. The file
// holds a list of Filament entries. Custom entries shadow built-ins of
// the same name.
func (s *Store) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read filament profiles: %w", err)
	}

	var profiles []Filament
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return fmt.Errorf("decode filament profiles %s: %w", path, err)
	}

	for _, p := range profiles {
		if p.Name == "" {
			return fmt.Errorf("filament profile in %s has no name", path)
		}
		s.custom[strings.ToUpper(p.Name)] = p
	}
	return nil
}

// Lookup returns the profile for a material name, custom entries first.
func (s *Store) Lookup(name string) (Filament, bool) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return Filament{}, false
	}
	if s != nil && s.custom != nil {
		if p, ok := s.custom[key]; ok {
			return p, true
		}
	}
	p, ok := builtin[key]
	return p, ok
}

// Names lists every known profile name, built-ins included.
func (s *Store) Names() []string {
	seen := map[string]bool{}
	var names []string
	if s != nil {
		for k := range s.custom {
			seen[k] = true
			names = append(names, k)
		}
	}
	for k := range builtin {
		if !seen[k] {
			names = append(names, k)
		}
	}
	return names
}
