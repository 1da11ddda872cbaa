// Package tuning loads the construction parameters for
// OptimizedPredicateSet's decision-tree compiler (spec.md §4.5) from YAML.
package tuning

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CostWeights assigns a relative evaluation cost to each operator kind used
// during branch scoring (spec.md §4.5 step 2).
type CostWeights struct {
	Constant float64 `yaml:"constant"`
	Contains float64 `yaml:"contains"`
	Compare  float64 `yaml:"compare"`
	Match    float64 `yaml:"match"`
	Default  float64 `yaml:"default"`
}

// Config holds the tuning knobs named in spec.md §4.5: minimum occurrence
// count for hoisting a shared subexpression into a branch, the recursion
// depth cap, the minimum estimated benefit ratio to accept a branch, and
// the per-operator cost table used for scoring.
type Config struct {
	MinCount    int         `yaml:"min_count"`
	MaxDepth    int         `yaml:"max_depth"`
	MinBenefit  float64     `yaml:"min_benefit"`
	CostWeights CostWeights `yaml:"cost_weights"`
}

// Default returns the conservative defaults used when no tuning document is
// supplied: a branch needs at least 2 occurrences, recursion stops at depth
// 6, and a branch must save at least 10% of the unpartitioned cost.
func Default() Config {
	return Config{
		MinCount:   2,
		MaxDepth:   6,
		MinBenefit: 0.10,
		CostWeights: CostWeights{
			Constant: 0,
			Contains: 1,
			Compare:  1,
			Match:    3,
			Default:  2,
		},
	}
}

// Load parses a YAML tuning document, filling any field left unset with
// Default()'s value.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("tuning: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether cfg's values are usable by the compiler.
func (c Config) Validate() error {
	if c.MinCount < 2 {
		return fmt.Errorf("tuning: min_count must be >= 2, got %d", c.MinCount)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("tuning: max_depth must be >= 1, got %d", c.MaxDepth)
	}
	if c.MinBenefit < 0 {
		return fmt.Errorf("tuning: min_benefit must be >= 0, got %f", c.MinBenefit)
	}
	return nil
}

// Cost returns the configured weight for an operator kind name, falling
// back to Default when the name is unrecognized.
func (c Config) Cost(kindName string) float64 {
	switch kindName {
	case "Constant":
		return c.CostWeights.Constant
	case "ContainsOperator":
		return c.CostWeights.Contains
	case "MatchesOperator":
		return c.CostWeights.Match
	case "EqualsOperator", "NotEqualsOperator", "LessThanOperator", "LessOrEqualOperator",
		"GreaterThanOperator", "GreaterOrEqualOperator", "IsOperator", "IsNotOperator":
		return c.CostWeights.Compare
	default:
		return c.CostWeights.Default
	}
}
