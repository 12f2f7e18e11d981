package categorize

import (
	"fmt"
	"strings"

	"spendbook/internal/models"
)

// SuggestFunc maps a transaction's full description to a category id.
// A result <= 0 means no suggestion.
type SuggestFunc func(fullDescription string) int64

// Suggester resolves rule matches to category ids. Descriptions matching no rule
// get the Uncategorized id.
type Suggester struct {
	engine        *Engine
	ids           map[string]int64 // lowercased category name -> id
	uncategorized int64
}

// NewSuggester binds the engine to the category table. Every rule must name an existing category.
func NewSuggester(engine *Engine, categories []models.Category) (*Suggester, error) {
	s := &Suggester{engine: engine, ids: make(map[string]int64, len(categories))}
	for _, c := range categories {
		s.ids[strings.ToLower(c.Name)] = c.ID
		if c.Name == models.UncategorizedCategory {
			s.uncategorized = c.ID
		}
	}
	if s.uncategorized == 0 {
		return nil, fmt.Errorf("category %q not found", models.UncategorizedCategory)
	}

	for _, rule := range engine.rules {
		if _, ok := s.ids[strings.ToLower(rule.Category)]; !ok {
			return nil, fmt.Errorf("rule %q: unknown category %q", rule.Name, rule.Category)
		}
	}
	return s, nil
}

func (s *Suggester) Suggest(fullDescription string) int64 {
	rule, ok := s.engine.Match(fullDescription)
	if !ok {
		return s.uncategorized
	}
	return s.ids[strings.ToLower(rule.Category)]
}

// Func returns Suggest as a SuggestFunc
func (s *Suggester) Func() SuggestFunc {
	return s.Suggest
}
