package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	cat, err := Load("")
	require.NoError(t, err)
	require.Greater(t, cat.Len(), 0)

	for _, s := range cat.Strategies() {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Template)
		assert.Contains(t, s.Template, "{time}")
		assert.NotEmpty(t, s.Tasks)
		assert.NotEmpty(t, s.Phases)
	}
}

func TestLoadExternalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `[{
		"name": "Prueba",
		"description": "d",
		"template": "t {time}",
		"min_time_minutes": 5,
		"tasks": ["any"],
		"phases": ["any"],
		"category": "approach",
		"recommended_level": "concrete",
		"vibe": "NEUTRAL"
	}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
	assert.Equal(t, "Prueba", cat.Strategies()[0].Name)
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty catalog", `[]`},
		{"missing name", `[{"template": "t", "tasks": ["any"], "phases": ["any"], "category": "approach", "recommended_level": "concrete"}]`},
		{"bad category", `[{"name": "x", "template": "t", "tasks": ["any"], "phases": ["any"], "category": "sideways", "recommended_level": "concrete"}]`},
		{"no tasks", `[{"name": "x", "template": "t", "tasks": [], "phases": ["any"], "category": "approach", "recommended_level": "concrete"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestAppliesTo(t *testing.T) {
	s := Strategy{
		Tasks:  []string{"essay", "draft"},
		Phases: []string{"revision"},
	}

	assert.True(t, s.AppliesTo("essay", "revision"))
	assert.False(t, s.AppliesTo("coding", "revision"))
	assert.False(t, s.AppliesTo("essay", "execution"))
	// Unknown caller-side values are unconstrained when empty.
	assert.True(t, s.AppliesTo("", "revision"))

	anyStrat := Strategy{Tasks: []string{AnyTag}, Phases: []string{AnyTag}}
	assert.True(t, anyStrat.AppliesTo("coding", "ideation"))
}

func TestLocalization(t *testing.T) {
	s := Strategy{
		Name:       "Micro-pasos",
		NameEN:     "Micro-Steps",
		Template:   "es {time}",
		TemplateEN: "en {time}",
		Steps:      []string{"uno"},
		StepsEN:    []string{"one"},
	}

	assert.Equal(t, "Micro-pasos", s.LocalizedName("es"))
	assert.Equal(t, "Micro-Steps", s.LocalizedName("en"))
	assert.Equal(t, []string{"one"}, s.LocalizedSteps("en"))

	// Missing English falls back to the primary locale.
	bare := Strategy{Name: "Solo ES", Template: "t"}
	assert.Equal(t, "Solo ES", bare.LocalizedName("en"))
	assert.Equal(t, "t", bare.LocalizedTemplate("en"))
}

func TestFallbackIsAlwaysApplicable(t *testing.T) {
	fb := Fallback()
	assert.Equal(t, 0, fb.MinTime)
	assert.True(t, fb.AppliesTo("coding", "revision"))
	assert.True(t, fb.AppliesTo("essay", "ideation"))
	assert.NotEmpty(t, fb.Template)
}

func TestEmbeddingTextIncludesBothLocales(t *testing.T) {
	s := Strategy{
		Name:          "Pomodoro",
		NameEN:        "Pomodoro",
		Description:   "bloques de foco",
		DescriptionEN: "focus blocks",
		Tags:          []string{"timeboxing"},
	}
	text := s.EmbeddingText()
	assert.Contains(t, text, "bloques de foco")
	assert.Contains(t, text, "focus blocks")
	assert.Contains(t, text, "timeboxing")
}
