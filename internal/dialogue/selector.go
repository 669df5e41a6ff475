package dialogue

import (
	"context"

	"flou/internal/catalog"
	"flou/internal/session"
)

// SelectionInput carries everything a ranking policy may use. QueryText is
// only consulted by the semantic retriever.
type SelectionInput struct {
	Quadrant  session.Quadrant
	Slots     session.Slots
	QueryText string
	Excluded  []string
}

// Selector picks one strategy for the current situation. Selection is total:
// an empty candidate set yields the generic fallback, never an error. The
// ranking policy is fixed at startup and never switched mid-session.
type Selector interface {
	Select(ctx context.Context, input SelectionInput) catalog.Strategy
}

// RuleSelector ranks candidates by orientation and framing-level match with
// a strict, ordered tie-break. Pure; it never mutates session state.
type RuleSelector struct {
	catalog *catalog.Catalog
}

// NewRuleSelector builds the deterministic ranking policy.
func NewRuleSelector(cat *catalog.Catalog) *RuleSelector {
	return &RuleSelector{catalog: cat}
}

// feasibleCandidates applies the hard filters shared by both ranking
// policies: exclusions, time budget, task type and phase applicability.
func feasibleCandidates(cat *catalog.Catalog, slots session.Slots, excluded []string) []catalog.Strategy {
	excludedSet := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		excludedSet[name] = true
	}

	var candidates []catalog.Strategy
	for _, s := range cat.Strategies() {
		if excludedSet[s.Name] || excludedSet[s.NameEN] {
			continue
		}
		if slots.TimeAvailableMinutes < s.MinTime {
			continue
		}
		if !s.AppliesTo(slots.TaskType, slots.Phase) {
			continue
		}
		candidates = append(candidates, s)
	}
	return candidates
}

// orientationCategory maps the quadrant's axisA to a catalog category.
func orientationCategory(quadrant session.Quadrant) string {
	if quadrant.AxisA == AxisAvoidance {
		return catalog.CategoryAvoidance
	}
	return catalog.CategoryApproach
}

// levelFor maps axisB to a recommended framing level. Mixed framing ranks
// as concrete; urgency-driven concreteness is the safer default.
func levelFor(quadrant session.Quadrant) string {
	if quadrant.AxisB == AxisAbstract {
		return catalog.LevelAbstract
	}
	return catalog.LevelConcrete
}

func (s *RuleSelector) Select(_ context.Context, input SelectionInput) catalog.Strategy {
	quadrant := input.Quadrant

	// Safety override, in case the caller classified before the feeling
	// was known.
	if input.Slots.Feeling == session.FeelingAnxiety || input.Slots.Feeling == session.FeelingLowSelfEfficacy {
		quadrant.AxisA = AxisAvoidance
		quadrant.AxisB = AxisConcrete
	}

	candidates := feasibleCandidates(s.catalog, input.Slots, input.Excluded)
	if len(candidates) == 0 {
		return catalog.Fallback()
	}

	category := orientationCategory(quadrant)
	level := levelFor(quadrant)

	var categoryMatches []catalog.Strategy
	for _, c := range candidates {
		if c.Category == category {
			categoryMatches = append(categoryMatches, c)
		}
	}

	for _, c := range categoryMatches {
		if c.Level == level {
			return c
		}
	}
	if len(categoryMatches) > 0 {
		return categoryMatches[0]
	}

	// No orientation match: fall back to the abstract/concrete category
	// label matching the framing level.
	levelCategory := catalog.CategoryConcrete
	if level == catalog.LevelAbstract {
		levelCategory = catalog.CategoryAbstract
	}
	for _, c := range candidates {
		if c.Category == levelCategory {
			return c
		}
	}

	return candidates[0]
}
