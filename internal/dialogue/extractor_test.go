package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"flou/internal/llm"
	"flou/internal/session"
)

func TestHeuristicExtractorFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want session.Slots
	}{
		{
			name: "frustration with essay due today",
			text: "Estoy frustrado con un ensayo que es para hoy",
			want: session.Slots{
				Feeling:  session.FeelingFrustration,
				TaskType: session.TaskEssay,
				Deadline: session.DeadlineToday,
			},
		},
		{
			name: "anxiety and revision phase",
			text: "Tengo que corregir el informe y estoy muy estresado",
			want: session.Slots{
				Feeling:  session.FeelingAnxiety,
				TaskType: session.TaskEssay,
				Phase:    session.PhaseRevision,
			},
		},
		{
			name: "explicit minutes with unit",
			text: "tengo 20 min libres",
			want: session.Slots{TimeAvailableMinutes: 20},
		},
		{
			name: "minutes as word",
			text: "tengo media hora",
			want: session.Slots{TimeAvailableMinutes: 30},
		},
		{
			name: "english input",
			text: "I'm bored with this essay, maybe 25 minutes today",
			want: session.Slots{
				Feeling:              session.FeelingBoredom,
				TaskType:             session.TaskEssay,
				Deadline:             session.DeadlineToday,
				TimeAvailableMinutes: 25,
			},
		},
		{
			name: "bugfix beats coding when both mentioned",
			text: "hay un bug en mi código",
			want: session.Slots{TaskType: session.TaskBugfix},
		},
		{
			name: "no signal yields nothing",
			text: "mmm",
			want: session.Slots{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeuristicExtractor{}.Extract(context.Background(), tt.text, session.Slots{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristicExtractorNeverBlanksKnownSlots(t *testing.T) {
	current := session.Slots{
		Feeling:              session.FeelingBoredom,
		TaskType:             session.TaskCoding,
		Deadline:             session.DeadlineThisWeek,
		Phase:                session.PhaseExecution,
		TimeAvailableMinutes: 25,
	}
	got := HeuristicExtractor{}.Extract(context.Background(), "sigo igual", current)
	assert.Equal(t, current, got)
}

func TestLLMExtractorMergesModelOutput(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"feeling": "anxiety", "task_type": "essay", "deadline": "today", "work_phase": "revision"}`)
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "me estresa terminar el ensayo para hoy", session.Slots{})
	assert.Equal(t, session.FeelingAnxiety, got.Feeling)
	assert.Equal(t, session.TaskEssay, got.TaskType)
	assert.Equal(t, session.DeadlineToday, got.Deadline)
	assert.Equal(t, session.PhaseRevision, got.Phase)

	calls := client.Calls()
	assert.Len(t, calls, 1)
	assert.True(t, calls[0].JSONMode)
	assert.InDelta(t, 0.1, calls[0].Temperature, 1e-9)
}

func TestLLMExtractorRepairsMalformedJSON(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"feeling": "boredom", "task_type": "summary"`)
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "qué lata este resumen", session.Slots{})
	assert.Equal(t, session.FeelingBoredom, got.Feeling)
	assert.Equal(t, session.TaskSummary, got.TaskType)
}

func TestLLMExtractorDropsInventedMinutes(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"feeling": "neutral", "time_available_minutes": 25}`)
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "estoy bien, quiero avanzar el proyecto", session.Slots{})
	assert.Equal(t, session.FeelingNeutral, got.Feeling)
	assert.Zero(t, got.TimeAvailableMinutes)
}

func TestLLMExtractorKeepsMinutesWithExplicitCue(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"time_available_minutes": 20}`)
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "tengo 20 minutos", session.Slots{})
	assert.Equal(t, 20, got.TimeAvailableMinutes)
}

func TestLLMExtractorDropsUnknownTags(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"feeling": "ecstatic", "task_type": "interpretive-dance"}`)
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "hola", session.Slots{})
	assert.Empty(t, got.Feeling)
	assert.Empty(t, got.TaskType)
}

func TestLLMExtractorFallsBackToHeuristicsOnError(t *testing.T) {
	client := (&llm.MockClient{}).QueueError(errors.New("boom"))
	extractor := NewLLMExtractor(client, nil)

	got := extractor.Extract(context.Background(), "estoy frustrado con este ensayo", session.Slots{})
	assert.Equal(t, session.FeelingFrustration, got.Feeling)
	assert.Equal(t, session.TaskEssay, got.TaskType)
}
