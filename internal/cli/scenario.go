// Package cli implements the traitwatch command surface: scenario
// loading and the demo, stress and serve runners.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// WatchSpec is one subscription requested by a scenario.
type WatchSpec struct {
	Trait string `yaml:"trait" mapstructure:"trait"`
	Group string `yaml:"group,omitempty" mapstructure:"group"`
}

// Step is one scripted mutation. Exactly one of Set or Fire is used.
type Step struct {
	Set  map[string]any `yaml:"set,omitempty" mapstructure:"set"`
	Fire map[string]any `yaml:"fire,omitempty" mapstructure:"fire"`
}

// Scenario is a declarative demo: initial traits, subscriptions, and a
// mutation script.
type Scenario struct {
	Description string         `yaml:"description,omitempty" mapstructure:"description"`
	Traits      map[string]any `yaml:"traits" mapstructure:"traits"`
	Watch       []WatchSpec    `yaml:"watch" mapstructure:"watch"`
	Script      []Step         `yaml:"script" mapstructure:"script"`
}

// Load reads and validates a scenario file. YAML is decoded to a raw map
// first and then mapped onto the typed structure, so unknown keys
// surface as errors instead of being silently dropped.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	var sc Scenario
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &sc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every referenced trait is declared. Extended
// paths are checked on their first segment; the rest resolves at
// runtime by design.
func (sc *Scenario) Validate() error {
	if len(sc.Traits) == 0 {
		return fmt.Errorf("scenario declares no traits")
	}
	for _, w := range sc.Watch {
		if w.Trait == domain.AnyTrait {
			continue
		}
		if err := sc.checkTrait(firstSegment(w.Trait)); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
	}
	for i, step := range sc.Script {
		if len(step.Set) == 0 && len(step.Fire) == 0 {
			return fmt.Errorf("script step %d: needs set or fire", i+1)
		}
		for name := range step.Set {
			if err := sc.checkTrait(firstSegment(name)); err != nil {
				return fmt.Errorf("script step %d: %w", i+1, err)
			}
		}
		for name := range step.Fire {
			if err := sc.checkTrait(firstSegment(name)); err != nil {
				return fmt.Errorf("script step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (sc *Scenario) checkTrait(name string) error {
	if _, ok := sc.Traits[name]; ok {
		return nil
	}
	if hint := sc.suggest(name); hint != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", domain.ErrUnknownTrait, name, hint)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownTrait, name)
}

// suggest returns the closest declared trait name within a small edit
// distance.
func (sc *Scenario) suggest(name string) string {
	names := make([]string, 0, len(sc.Traits))
	for n := range sc.Traits {
		names = append(names, n)
	}
	sort.Strings(names)

	best := ""
	bestDist := 3 // anything further is noise
	for _, n := range names {
		if d := levenshtein.ComputeDistance(name, n); d <= bestDist {
			best = n
			bestDist = d - 1
		}
	}
	return best
}

func firstSegment(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
