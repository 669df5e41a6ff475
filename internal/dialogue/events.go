// Package dialogue implements the turn-processing state machine: slot
// extraction, the crisis guard, quadrant classification, strategy selection
// and the orchestrator that ties them together, with both a blocking and a
// streaming surface.
package dialogue

import (
	"flou/internal/i18n"
	"flou/internal/session"
)

// Control commands recognized as guardrails. They arrive as the whole
// message text, sent by quick replies.
const (
	CommandGreeting       = "__greeting__"
	CommandAcceptStrategy = "__accept_strategy__"
	CommandRejectStrategy = "__reject_strategy__"
	setTimePrefix         = "__set_time_"
	commandSuffix         = "__"
)

// Tunable turn constants. The thresholds come from tuning, not from any
// domain constraint.
const (
	// FeelingGateMaxIteration caps how many turns the feeling question may
	// interrupt before the flow proceeds without one.
	FeelingGateMaxIteration = 3

	// RejectionRedirectThreshold is the number of consecutive strategy
	// rejections that triggers the redirect out of the strategy flow.
	RejectionRedirectThreshold = 2

	// MinUsableTime is the smallest time budget a timer can be started with.
	MinUsableTime = 5

	// DefaultTimeBudget substitutes a missing time value in confirmation
	// messages, never during slot-filling.
	DefaultTimeBudget = 15

	// HistoryWindow is how many recent messages accompany a Generator call.
	HistoryWindow = 6

	// CrisisConfidenceThreshold gates acting on a crisis assessment.
	CrisisConfidenceThreshold = 0.7
)

// RedirectWellness is the metadata redirect target emitted when repeated
// rejections cap the strategy flow.
const RedirectWellness = "wellness"

// Event types emitted by the streaming surface, in their per-turn order.
const (
	EventStart        = "start"
	EventToken        = "token"
	EventQuickReply   = "quick_reply"
	EventMetadata     = "metadata"
	EventGuardrail    = "guardrail"
	EventSessionState = "session_state"
	EventDone         = "done"
	EventError        = "error"
)

// Event is one streamed progress record. Data schemas per type:
// start {session_id, timestamp}, token {text}, quick_reply [QuickReply],
// guardrail {text, quick_replies, is_crisis?}, metadata TurnMetadata,
// session_state session.State, error {message}, done {}.
type Event struct {
	Type string `json:"event"`
	Data any    `json:"data"`
}

// TimerConfig tells the client to start a countdown.
type TimerConfig struct {
	DurationMinutes int    `json:"duration_minutes"`
	Label           string `json:"label"`
}

// TurnMetadata carries auxiliary, non-reply results of a turn.
type TurnMetadata struct {
	Strategy            string       `json:"strategy,omitempty"`
	StrategyDescription string       `json:"strategy_description,omitempty"`
	StrategySteps       []string     `json:"strategy_steps,omitempty"`
	TimerConfig         *TimerConfig `json:"timer_config,omitempty"`
	Redirect            string       `json:"redirect,omitempty"`
	FullReply           string       `json:"full_reply,omitempty"`
}

// Empty reports whether the metadata carries nothing worth emitting.
func (m TurnMetadata) Empty() bool {
	return m.Strategy == "" && m.StrategyDescription == "" &&
		len(m.StrategySteps) == 0 && m.TimerConfig == nil &&
		m.Redirect == "" && m.FullReply == ""
}

// TurnResult is the complete outcome of one blocking turn. It is always
// well-formed: turn processing never returns an error to the caller.
type TurnResult struct {
	Reply        string
	Session      *session.State
	QuickReplies []i18n.QuickReply
	Metadata     TurnMetadata
	IsCrisis     bool
}

// GuardrailPayload is the data schema of guardrail events.
type GuardrailPayload struct {
	Text         string            `json:"text"`
	QuickReplies []i18n.QuickReply `json:"quick_replies"`
	IsCrisis     bool              `json:"is_crisis,omitempty"`
}
