package dialogue

import "flou/internal/session"

// Axis values produced by Classify.
const (
	AxisApproach  = "approach"
	AxisAvoidance = "avoidance"
	AxisAbstract  = "abstract"
	AxisConcrete  = "concrete"
	AxisMixed     = "mixed"

	OrientationPromotion  = "promotion-eager"
	OrientationPrevention = "prevention-vigilant"
)

// Creative, generative tasks default to approach framing; verification and
// correction tasks default to avoidance framing.
var approachTasks = map[string]bool{
	session.TaskEssay:        true,
	session.TaskOutline:      true,
	session.TaskDraft:        true,
	session.TaskPresentation: true,
	session.TaskCoding:       true,
}

var avoidanceTasks = map[string]bool{
	session.TaskProofreading:       true,
	session.TaskMultipleChoicePrep: true,
	session.TaskLabProtocol:        true,
	session.TaskProblemSolving:     true,
	session.TaskBugfix:             true,
	session.TaskTechnicalReading:   true,
	session.TaskSummary:            true,
}

func urgentDeadline(deadline string) bool {
	return deadline == session.DeadlineToday || deadline == session.DeadlineUnder24h
}

func earlyPhase(phase string) bool {
	return phase == session.PhaseIdeation || phase == session.PhasePlanning
}

// Classify maps slots to the two-axis motivational orientation. Pure and
// deterministic; same slots always yield the same quadrant.
//
// AxisA starts from the task-type lookup, then phase and urgency overrides
// take precedence: revision or an urgent deadline forces avoidance, an early
// phase forces approach. AxisB defaults to concrete, goes abstract in early
// phases, and is forced back to concrete by revision or urgency. An essay in
// planning or execution is tagged mixed. The anxiety/low-self-efficacy
// override is applied last and wins unconditionally.
func Classify(slots session.Slots) session.Quadrant {
	axisA := AxisApproach
	if avoidanceTasks[slots.TaskType] {
		axisA = AxisAvoidance
	}
	if slots.Phase == session.PhaseRevision || urgentDeadline(slots.Deadline) {
		axisA = AxisAvoidance
	}
	if earlyPhase(slots.Phase) {
		axisA = AxisApproach
	}

	axisB := AxisConcrete
	if earlyPhase(slots.Phase) {
		axisB = AxisAbstract
	}
	if slots.Phase == session.PhaseRevision || urgentDeadline(slots.Deadline) {
		axisB = AxisConcrete
	}
	if slots.TaskType == session.TaskEssay &&
		(slots.Phase == session.PhasePlanning || slots.Phase == session.PhaseExecution) {
		axisB = AxisMixed
	}

	if slots.Feeling == session.FeelingAnxiety || slots.Feeling == session.FeelingLowSelfEfficacy {
		axisA = AxisAvoidance
		axisB = AxisConcrete
	}

	orientation := OrientationPromotion
	if axisA == AxisAvoidance {
		orientation = OrientationPrevention
	}

	return session.Quadrant{AxisA: axisA, AxisB: axisB, Orientation: orientation}
}
