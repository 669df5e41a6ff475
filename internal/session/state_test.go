package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotsMergeNeverBlanksKnownFields(t *testing.T) {
	current := Slots{
		Feeling:              FeelingFrustration,
		TaskType:             TaskEssay,
		Deadline:             DeadlineThisWeek,
		TimeAvailableMinutes: 25,
	}

	merged := current.Merge(Slots{Phase: PhaseExecution})

	assert.Equal(t, FeelingFrustration, merged.Feeling)
	assert.Equal(t, TaskEssay, merged.TaskType)
	assert.Equal(t, DeadlineThisWeek, merged.Deadline)
	assert.Equal(t, PhaseExecution, merged.Phase)
	assert.Equal(t, 25, merged.TimeAvailableMinutes)
}

func TestSlotsMergeOverwritesWithNewValues(t *testing.T) {
	current := Slots{Feeling: FeelingNeutral, Phase: PhaseIdeation}
	merged := current.Merge(Slots{Feeling: FeelingAnxiety, Phase: PhaseRevision})

	assert.Equal(t, FeelingAnxiety, merged.Feeling)
	assert.Equal(t, PhaseRevision, merged.Phase)
}

func TestSlotsCompleteness(t *testing.T) {
	slots := Slots{
		Feeling:  FeelingBoredom,
		TaskType: TaskCoding,
		Deadline: DeadlineToday,
		Phase:    PhaseExecution,
	}
	assert.True(t, slots.QualitativeKnown())
	assert.False(t, slots.Complete())

	slots.TimeAvailableMinutes = 15
	assert.True(t, slots.Complete())
}

func TestNewGeneratesSessionID(t *testing.T) {
	state := New("", "user-1")
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, "user-1", state.UserID)
	assert.Equal(t, 0, state.Iteration)
	assert.Equal(t, ConversationInitial, state.ConversationPhase)
}

func TestResetKeepsIdentityDiscardsProgress(t *testing.T) {
	state := New("sess-1", "user-1")
	state.Iteration = 5
	state.Slots.Feeling = FeelingAnxiety
	state.StrategyGiven = true
	state.LastStrategy = "Pomodoro de arranque"
	state.Rejections = 1
	state.RejectedStrategies = []string{"Plan si-entonces"}
	state.Greeted = true

	fresh := state.Reset()

	assert.Equal(t, "sess-1", fresh.SessionID)
	assert.Equal(t, "user-1", fresh.UserID)
	assert.Equal(t, 0, fresh.Iteration)
	assert.Empty(t, fresh.Slots.Feeling)
	assert.False(t, fresh.StrategyGiven)
	assert.Empty(t, fresh.LastStrategy)
	assert.Zero(t, fresh.Rejections)
	assert.Empty(t, fresh.RejectedStrategies)
	assert.False(t, fresh.Greeted)
	assert.Equal(t, state.CreatedAt, fresh.CreatedAt)
}

func TestCloneIsIndependent(t *testing.T) {
	state := New("sess-1", "user-1")
	state.RejectedStrategies = []string{"a"}

	cp := state.Clone()
	cp.RejectedStrategies[0] = "b"
	cp.Slots.Feeling = FeelingPositive

	assert.Equal(t, "a", state.RejectedStrategies[0])
	assert.Empty(t, state.Slots.Feeling)
}
