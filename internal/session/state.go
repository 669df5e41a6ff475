// Package session defines the conversational state carried across turns and
// the stores that persist it.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Feeling tags.
const (
	FeelingFrustration     = "frustration"
	FeelingAnxiety         = "anxiety"
	FeelingBoredom         = "boredom"
	FeelingRumination      = "rumination"
	FeelingLowSelfEfficacy = "low-self-efficacy"
	FeelingNeutral         = "neutral"
	FeelingPositive        = "positive"
	FeelingOther           = "other"
)

// Task type tags.
const (
	TaskEssay              = "essay"
	TaskOutline            = "outline"
	TaskDraft              = "draft"
	TaskTechnicalReading   = "technical-reading"
	TaskSummary            = "summary"
	TaskProblemSolving     = "problem-solving"
	TaskLabProtocol        = "lab-protocol"
	TaskMultipleChoicePrep = "multiple-choice-prep"
	TaskPresentation       = "presentation"
	TaskCoding             = "coding"
	TaskBugfix             = "bugfix"
	TaskProofreading       = "proofreading"
	TaskProject            = "project"
	TaskOther              = "other"
)

// Deadline tags.
const (
	DeadlineToday    = "today"
	DeadlineUnder24h = "<24h"
	DeadlineThisWeek = "this-week"
	DeadlineOverWeek = ">1-week"
)

// Work phase tags.
const (
	PhaseIdeation  = "ideation"
	PhasePlanning  = "planning"
	PhaseExecution = "execution"
	PhaseRevision  = "revision"
)

// Conversation phase tags (informational only).
const (
	ConversationInitial      = "initial"
	ConversationExploration  = "exploration"
	ConversationIntervention = "intervention"
	ConversationClosure      = "closure"
)

// Slots is the extracted situational fingerprint of the user's need. Empty
// string or zero means not yet observed. TimeAvailableMinutes is only set
// from an explicit numeric cue, never guessed.
type Slots struct {
	Feeling              string `json:"feeling,omitempty"`
	FeelingDetail        string `json:"feeling_detail,omitempty"`
	TaskType             string `json:"task_type,omitempty"`
	Subject              string `json:"subject,omitempty"`
	Deadline             string `json:"deadline,omitempty"`
	Phase                string `json:"work_phase,omitempty"`
	TimeAvailableMinutes int    `json:"time_available_minutes,omitempty"`
}

// Merge folds an extraction result into the current slots. A field is only
// overwritten by a non-empty new value; known values are never blanked.
func (s Slots) Merge(update Slots) Slots {
	if update.Feeling != "" {
		s.Feeling = update.Feeling
	}
	if update.FeelingDetail != "" {
		s.FeelingDetail = update.FeelingDetail
	}
	if update.TaskType != "" {
		s.TaskType = update.TaskType
	}
	if update.Subject != "" {
		s.Subject = update.Subject
	}
	if update.Deadline != "" {
		s.Deadline = update.Deadline
	}
	if update.Phase != "" {
		s.Phase = update.Phase
	}
	if update.TimeAvailableMinutes > 0 {
		s.TimeAvailableMinutes = update.TimeAvailableMinutes
	}
	return s
}

// QualitativeKnown reports whether feeling, task, deadline and phase are all
// observed. This gates the time question.
func (s Slots) QualitativeKnown() bool {
	return s.Feeling != "" && s.TaskType != "" && s.Deadline != "" && s.Phase != ""
}

// Complete reports whether every slot, including time, is observed.
func (s Slots) Complete() bool {
	return s.QualitativeKnown() && s.TimeAvailableMinutes > 0
}

// Quadrant is the last computed motivational orientation.
type Quadrant struct {
	AxisA       string `json:"axis_a,omitempty"`
	AxisB       string `json:"axis_b,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

// State is the unit of conversational memory for one session. Mutated only
// by the turn orchestrator, exactly once per turn; callers must serialize
// turns per session id.
type State struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Iteration int    `json:"iteration"`
	Slots     Slots  `json:"slots"`

	LastStrategy      string `json:"last_strategy,omitempty"`
	StrategyGiven     bool   `json:"strategy_given"`
	OrientationTag    string `json:"current_orientation_tag,omitempty"`
	ConversationPhase string `json:"conversation_phase"`

	Greeted            bool     `json:"greeted"`
	Rejections         int      `json:"rejections"`
	RejectedStrategies []string `json:"rejected_strategies,omitempty"`
	Quadrant           Quadrant `json:"quadrant"`
	LastStrategySteps  []string `json:"last_strategy_steps,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh session state. An empty sessionID gets a generated one.
func New(sessionID, userID string) *State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now().UTC()
	return &State{
		SessionID:         sessionID,
		UserID:            userID,
		ConversationPhase: ConversationInitial,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Reset returns a new state with the same identity, discarding slots,
// strategy bookkeeping and counters.
func (s *State) Reset() *State {
	fresh := New(s.SessionID, s.UserID)
	fresh.CreatedAt = s.CreatedAt
	return fresh
}

// Clone returns a deep copy safe to mutate independently.
func (s *State) Clone() *State {
	cp := *s
	cp.RejectedStrategies = append([]string(nil), s.RejectedStrategies...)
	cp.LastStrategySteps = append([]string(nil), s.LastStrategySteps...)
	return &cp
}
