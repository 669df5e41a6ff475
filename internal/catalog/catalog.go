// Package catalog holds the static strategy catalog. Entries are loaded once
// at startup, either from an external JSON file or from the embedded default
// set, and are read-only afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Category and level tags used by the selector's ranking.
const (
	CategoryApproach  = "approach"
	CategoryAvoidance = "avoidance"
	CategoryAbstract  = "abstract"
	CategoryConcrete  = "concrete"

	LevelAbstract = "abstract"
	LevelConcrete = "concrete"

	// AnyTag matches every task type or work phase.
	AnyTag = "any"
)

// Strategy is one catalog entry: a coping or productivity technique with its
// applicability constraints and presentation material. Spanish is the primary
// locale; *_en fields are the English rendering.
type Strategy struct {
	Name          string   `json:"name"`
	NameEN        string   `json:"name_en,omitempty"`
	Description   string   `json:"description"`
	DescriptionEN string   `json:"description_en,omitempty"`
	Template      string   `json:"template"`
	TemplateEN    string   `json:"template_en,omitempty"`
	Steps         []string `json:"steps,omitempty"`
	StepsEN       []string `json:"steps_en,omitempty"`

	MinTime int      `json:"min_time_minutes"`
	Tasks   []string `json:"tasks"`
	Phases  []string `json:"phases"`

	Category string   `json:"category"`
	Level    string   `json:"recommended_level"`
	Vibe     string   `json:"vibe"`
	Tags     []string `json:"tags,omitempty"`
}

// LocalizedName returns the strategy name for the locale.
func (s Strategy) LocalizedName(locale string) string {
	if locale == "en" && s.NameEN != "" {
		return s.NameEN
	}
	return s.Name
}

// LocalizedDescription returns the description for the locale.
func (s Strategy) LocalizedDescription(locale string) string {
	if locale == "en" && s.DescriptionEN != "" {
		return s.DescriptionEN
	}
	return s.Description
}

// LocalizedTemplate returns the presentation template for the locale.
// Templates carry {time} and {task} placeholders filled by the caller.
func (s Strategy) LocalizedTemplate(locale string) string {
	if locale == "en" && s.TemplateEN != "" {
		return s.TemplateEN
	}
	return s.Template
}

// LocalizedSteps returns the step list for the locale.
func (s Strategy) LocalizedSteps(locale string) []string {
	if locale == "en" && len(s.StepsEN) > 0 {
		return s.StepsEN
	}
	return s.Steps
}

// AppliesTo reports whether the strategy covers the task type and work phase.
// An empty tag on the caller side is treated as unconstrained.
func (s Strategy) AppliesTo(taskType, phase string) bool {
	if taskType != "" && !containsTag(s.Tasks, taskType) {
		return false
	}
	if phase != "" && !containsTag(s.Phases, phase) {
		return false
	}
	return true
}

// EmbeddingText is the document embedded for semantic retrieval: name,
// description and tags in both locales concatenated.
func (s Strategy) EmbeddingText() string {
	parts := []string{s.Name, s.NameEN, s.Description, s.DescriptionEN}
	parts = append(parts, s.Tags...)
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag || t == AnyTag {
			return true
		}
	}
	return false
}

// Catalog is an immutable, ordered strategy collection. Order matters: the
// selector's final tie-break is catalog order.
type Catalog struct {
	strategies []Strategy
}

//go:embed strategies.json
var embeddedCatalog []byte

// Load reads the catalog from path, or the embedded default set when path is
// empty.
func Load(path string) (*Catalog, error) {
	data := embeddedCatalog
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = fileData
	}

	var strategies []Strategy
	if err := json.Unmarshal(data, &strategies); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	for i, s := range strategies {
		if err := validateStrategy(s); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, s.Name, err)
		}
	}

	return &Catalog{strategies: strategies}, nil
}

func validateStrategy(s Strategy) error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	if s.Template == "" {
		return fmt.Errorf("missing template")
	}
	switch s.Category {
	case CategoryApproach, CategoryAvoidance, CategoryAbstract, CategoryConcrete:
	default:
		return fmt.Errorf("unknown category %q", s.Category)
	}
	switch s.Level {
	case LevelAbstract, LevelConcrete:
	default:
		return fmt.Errorf("unknown recommended_level %q", s.Level)
	}
	if s.MinTime < 0 {
		return fmt.Errorf("negative min_time_minutes")
	}
	if len(s.Tasks) == 0 || len(s.Phases) == 0 {
		return fmt.Errorf("tasks and phases must not be empty (use %q)", AnyTag)
	}
	return nil
}

// Strategies returns the entries in catalog order. Callers must not mutate
// the returned slice.
func (c *Catalog) Strategies() []Strategy {
	return c.strategies
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.strategies)
}

// ByName finds an entry by its primary or English name.
func (c *Catalog) ByName(name string) (Strategy, bool) {
	for _, s := range c.strategies {
		if s.Name == name || s.NameEN == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// Fallback is the guaranteed generic strategy returned when filtering leaves
// no candidates. It applies to anything and needs no minimum time.
func Fallback() Strategy {
	return Strategy{
		Name:          "Estrategia Genérica",
		NameEN:        "Generic Strategy",
		Description:   "Un empujón genérico para empezar cuando ninguna técnica concreta encaja.",
		DescriptionEN: "A generic nudge to get started when no specific technique fits.",
		Template:      "Entiendo cómo te sientes. Vamos a trabajar en esto juntos/as.\n\n**En los próximos {time} min:**\nelige la parte más pequeña de {task} y empieza solo con eso.\n\n¿Te parece bien empezar? 💪",
		TemplateEN:    "I understand how you feel. Let's work on this together.\n\n**In the next {time} min:**\npick the smallest piece of {task} and start with just that.\n\nReady to begin? 💪",
		MinTime:       0,
		Tasks:         []string{AnyTag},
		Phases:        []string{AnyTag},
		Category:      CategoryConcrete,
		Level:         LevelConcrete,
		Vibe:          "NEUTRAL",
	}
}
