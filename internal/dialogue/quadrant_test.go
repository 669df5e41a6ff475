package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flou/internal/session"
)

func TestClassifyTaskTypeDefaults(t *testing.T) {
	tests := []struct {
		name  string
		slots session.Slots
		axisA string
		axisB string
	}{
		{
			name:  "creative task defaults to approach",
			slots: session.Slots{TaskType: session.TaskDraft, Phase: session.PhaseExecution, Deadline: session.DeadlineThisWeek},
			axisA: AxisApproach,
			axisB: AxisConcrete,
		},
		{
			name:  "verification task defaults to avoidance",
			slots: session.Slots{TaskType: session.TaskProofreading, Phase: session.PhaseExecution, Deadline: session.DeadlineThisWeek},
			axisA: AxisAvoidance,
			axisB: AxisConcrete,
		},
		{
			name:  "revision forces avoidance over creative default",
			slots: session.Slots{TaskType: session.TaskDraft, Phase: session.PhaseRevision, Deadline: session.DeadlineOverWeek},
			axisA: AxisAvoidance,
			axisB: AxisConcrete,
		},
		{
			name:  "urgent deadline forces avoidance",
			slots: session.Slots{TaskType: session.TaskCoding, Phase: session.PhaseExecution, Deadline: session.DeadlineToday},
			axisA: AxisAvoidance,
			axisB: AxisConcrete,
		},
		{
			name:  "early phase forces approach over verification default",
			slots: session.Slots{TaskType: session.TaskSummary, Phase: session.PhaseIdeation, Deadline: session.DeadlineOverWeek},
			axisA: AxisApproach,
			axisB: AxisAbstract,
		},
		{
			name:  "planning yields abstract framing",
			slots: session.Slots{TaskType: session.TaskProject, Phase: session.PhasePlanning, Deadline: session.DeadlineThisWeek},
			axisA: AxisApproach,
			axisB: AxisAbstract,
		},
		{
			name:  "essay in planning is mixed",
			slots: session.Slots{TaskType: session.TaskEssay, Phase: session.PhasePlanning, Deadline: session.DeadlineThisWeek},
			axisA: AxisApproach,
			axisB: AxisMixed,
		},
		{
			name:  "essay in execution is mixed",
			slots: session.Slots{TaskType: session.TaskEssay, Phase: session.PhaseExecution, Deadline: session.DeadlineThisWeek},
			axisA: AxisApproach,
			axisB: AxisMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Classify(tt.slots)
			assert.Equal(t, tt.axisA, q.AxisA)
			assert.Equal(t, tt.axisB, q.AxisB)
		})
	}
}

func TestClassifySafetyOverrideAlwaysWins(t *testing.T) {
	for _, feeling := range []string{session.FeelingAnxiety, session.FeelingLowSelfEfficacy} {
		for _, slots := range []session.Slots{
			{Feeling: feeling, TaskType: session.TaskEssay, Phase: session.PhaseIdeation, Deadline: session.DeadlineOverWeek},
			{Feeling: feeling, TaskType: session.TaskCoding, Phase: session.PhasePlanning, Deadline: session.DeadlineThisWeek},
			{Feeling: feeling},
		} {
			q := Classify(slots)
			assert.Equal(t, AxisAvoidance, q.AxisA, "feeling %s slots %+v", feeling, slots)
			assert.Equal(t, AxisConcrete, q.AxisB, "feeling %s slots %+v", feeling, slots)
			assert.Equal(t, OrientationPrevention, q.Orientation)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	slots := session.Slots{
		Feeling:  session.FeelingBoredom,
		TaskType: session.TaskEssay,
		Phase:    session.PhaseExecution,
		Deadline: session.DeadlineThisWeek,
	}
	first := Classify(slots)
	for range 10 {
		assert.Equal(t, first, Classify(slots))
	}
}

func TestClassifyOrientationDerivedFromAxisA(t *testing.T) {
	q := Classify(session.Slots{TaskType: session.TaskDraft, Phase: session.PhaseIdeation})
	assert.Equal(t, OrientationPromotion, q.Orientation)

	q = Classify(session.Slots{TaskType: session.TaskBugfix, Phase: session.PhaseRevision})
	assert.Equal(t, OrientationPrevention, q.Orientation)
}
