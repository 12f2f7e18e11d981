// Package categorize suggests an expense category for a transaction description
// using a YAML rules table.
package categorize

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against transaction descriptions
type MatchType string

const (
	// MatchTypeExact requires the pattern to match the entire description
	MatchTypeExact MatchType = "exact"
	// MatchTypeContains requires the pattern to be a substring of the description
	MatchTypeContains MatchType = "contains"
)

// Rule maps a description pattern to a category name
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`
}

// RuleSet represents the top-level YAML structure
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Engine performs rule matching on transaction descriptions
type Engine struct {
	rules []Rule // Sorted by priority (highest first)
}

// NewEngine creates a rules engine from YAML data
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	return newEngine(ruleSet.Rules)
}

func newEngine(rules []Rule) (*Engine, error) {
	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Engine{rules: sorted}, nil
}

func validateRule(rule Rule) error {
	if rule.Priority < 0 || rule.Priority > 999 {
		return fmt.Errorf("priority must be in [0,999], got %d", rule.Priority)
	}
	if rule.MatchType != MatchTypeExact && rule.MatchType != MatchTypeContains {
		return fmt.Errorf("invalid match_type %q (must be 'exact' or 'contains')", rule.MatchType)
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	if strings.TrimSpace(rule.Category) == "" {
		return fmt.Errorf("category cannot be empty")
	}
	return nil
}

// LoadEmbedded loads the built-in rules
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("load embedded rules: %w", err)
	}
	return engine, nil
}

// Load returns the built-in rules extended with the rules in path, if path is set.
func Load(path string) (*Engine, error) {
	if path == "" {
		return LoadEmbedded()
	}

	var base RuleSet
	if err := yaml.Unmarshal(embeddedRules, &base); err != nil {
		return nil, fmt.Errorf("parse embedded rules: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var extra RuleSet
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse rules file %q: %w", path, err)
	}

	// File rules go first so they win ties against built-ins of equal priority
	engine, err := newEngine(append(extra.Rules, base.Rules...))
	if err != nil {
		return nil, fmt.Errorf("load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Match returns the highest-priority rule matching the description.
func (e *Engine) Match(description string) (Rule, bool) {
	normalizedDesc := strings.ToLower(strings.TrimSpace(description))

	for _, rule := range e.rules {
		normalizedPattern := strings.ToLower(strings.TrimSpace(rule.Pattern))

		matched := false
		switch rule.MatchType {
		case MatchTypeExact:
			matched = normalizedDesc == normalizedPattern
		case MatchTypeContains:
			matched = strings.Contains(normalizedDesc, normalizedPattern)
		}
		if matched {
			return rule, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the rules in evaluation order
func (e *Engine) Rules() []Rule {
	result := make([]Rule, len(e.rules))
	copy(result, e.rules)
	return result
}
