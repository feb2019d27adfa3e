// Package manifest describes which input files make up each backtest period.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Manifest lists the periods of a run. Relative paths are resolved against
// the directory of the manifest file.
type Manifest struct {
	GroundTruth string   `yaml:"ground_truth"`
	OutputDir   string   `yaml:"output_dir"`
	Periods     []Period `yaml:"periods" validate:"required,min=1,dive"`
}

// Period is one group of prediction files scored against one ground truth.
// Either Sources or Pattern must be set; Sources wins when both are.
type Period struct {
	Name        string   `yaml:"name" validate:"required"`
	GroundTruth string   `yaml:"ground_truth"`
	Sources     []Source `yaml:"sources" validate:"required_without=Pattern,dive"`
	Pattern     string   `yaml:"pattern" validate:"required_without=Sources"`
}

// Source is one prediction file and the id it is reported under.
type Source struct {
	ID   string `yaml:"id" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

var validate = validator.New()

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes manifest YAML, resolving relative paths against baseDir.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Periods))
	for i := range m.Periods {
		p := &m.Periods[i]
		if seen[p.Name] {
			return nil, fmt.Errorf("invalid manifest: duplicate period %q", p.Name)
		}
		seen[p.Name] = true

		if p.GroundTruth == "" {
			p.GroundTruth = m.GroundTruth
		}
		if p.GroundTruth == "" {
			return nil, fmt.Errorf("invalid manifest: period %q has no ground_truth", p.Name)
		}
		p.GroundTruth = resolve(baseDir, p.GroundTruth)
		if p.Pattern != "" {
			p.Pattern = resolve(baseDir, p.Pattern)
		}

		if err := UniqueIDs(p.Name, p.Sources); err != nil {
			return nil, fmt.Errorf("invalid manifest: %w", err)
		}
		for j := range p.Sources {
			p.Sources[j].Path = resolve(baseDir, p.Sources[j].Path)
		}
	}
	if m.OutputDir != "" {
		m.OutputDir = resolve(baseDir, m.OutputDir)
	}
	return &m, nil
}

// Period returns the named period.
func (m *Manifest) Period(name string) (Period, bool) {
	for _, p := range m.Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// Names lists the periods in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Periods))
	for i, p := range m.Periods {
		names[i] = p.Name
	}
	return names
}

// ResolveSources returns the period's prediction files in processing order:
// the listed order for explicit sources, otherwise the pattern's matches
// sorted by path with the ground-truth file left out. Discovered sources are
// named after their file name without extension; two files that would get the
// same name (mint.csv and mint.xlsx) are an error.
func (p Period) ResolveSources() ([]Source, error) {
	if len(p.Sources) > 0 {
		if err := UniqueIDs(p.Name, p.Sources); err != nil {
			return nil, err
		}
		return p.Sources, nil
	}

	matches, err := filepath.Glob(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("period %s: bad pattern: %w", p.Name, err)
	}
	sort.Strings(matches)

	truth := filepath.Clean(p.GroundTruth)
	var sources []Source
	for _, path := range matches {
		if filepath.Clean(path) == truth {
			continue
		}
		base := filepath.Base(path)
		sources = append(sources, Source{ID: strings.TrimSuffix(base, filepath.Ext(base)), Path: path})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("period %s: pattern %q matched no prediction files", p.Name, p.Pattern)
	}
	if err := UniqueIDs(p.Name, sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// UniqueIDs fails when two sources share an ID. Scores are keyed by source
// ID, so a repeated one would hide the other file's predictions.
func UniqueIDs(period string, sources []Source) error {
	seen := make(map[string]string, len(sources))
	for _, s := range sources {
		if prev, ok := seen[s.ID]; ok {
			return fmt.Errorf("period %s: source id %q used by both %s and %s", period, s.ID, prev, s.Path)
		}
		seen[s.ID] = s.Path
	}
	return nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
