package dialogue

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"flou/internal/i18n"
	"flou/internal/llm"
	"flou/internal/logging"
	"flou/internal/metrics"
	"flou/internal/session"
)

// TurnInput is one user message plus its conversational context.
type TurnInput struct {
	Text    string
	Locale  string
	History []llm.Message
}

// Orchestrator runs the per-turn pipeline: command guardrails, crisis check,
// restart, greeting, slot extraction, the onboarding gates, strategy
// proposal and free conversation. It never mutates the caller's state; the
// result carries an updated clone.
type Orchestrator struct {
	client    llm.Client
	extractor Extractor
	guard     *CrisisGuard
	selector  Selector
	logger    logging.Logger
	metrics   metrics.Observer
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. All collaborators are required except
// the logger.
func NewOrchestrator(client llm.Client, extractor Extractor, guard *CrisisGuard, selector Selector, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		client:    client,
		extractor: extractor,
		guard:     guard,
		selector:  selector,
		logger:    logging.OrNop(logger),
		metrics:   metrics.Nop(),
		now:       time.Now,
	}
}

// WithMetrics attaches a telemetry observer. Without one, metrics are
// discarded.
func (o *Orchestrator) WithMetrics(observer metrics.Observer) *Orchestrator {
	if observer != nil {
		o.metrics = observer
	}
	return o
}

// generationPlan describes a turn that needs the Generator: the prompt to
// send and everything that accompanies the generated reply. fallbackText is
// what the user sees when generation fails; the turn itself never fails.
type generationPlan struct {
	systemPrompt string
	fallbackText string
	quickReplies []i18n.QuickReply
	metadata     TurnMetadata
	maxTokens    int
}

// turnPlan is the resolved branch for one turn: exactly one of guardrail or
// generate is set. Both surfaces share this so blocking and streaming turns
// cannot drift apart.
type turnPlan struct {
	guardrail     *TurnResult
	guardrailKind string
	generate      *generationPlan
}

func guardrailResult(kind, reply string, quickReplies []i18n.QuickReply, metadata TurnMetadata, isCrisis bool) turnPlan {
	return turnPlan{
		guardrailKind: kind,
		guardrail: &TurnResult{
			Reply:        reply,
			QuickReplies: quickReplies,
			Metadata:     metadata,
			IsCrisis:     isCrisis,
		},
	}
}

// planTurn walks the transition order and mutates state in place. The caller
// owns state and must pass a clone it is free to publish afterwards.
func (o *Orchestrator) planTurn(ctx context.Context, state *session.State, input TurnInput) turnPlan {
	locale := i18n.Normalize(input.Locale)
	text := strings.TrimSpace(input.Text)

	// A time command stores the chosen duration and then behaves as an
	// acceptance. A malformed duration is left to flow through as text.
	if strings.HasPrefix(text, setTimePrefix) && strings.HasSuffix(text, commandSuffix) {
		raw := strings.TrimSuffix(strings.TrimPrefix(text, setTimePrefix), commandSuffix)
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			state.Slots.TimeAvailableMinutes = n
			text = CommandAcceptStrategy
		}
	}

	switch text {
	case CommandGreeting:
		state.Greeted = true
		return guardrailResult("greeting", i18n.Greeting(locale), i18n.GreetingQuickReplies(locale), TurnMetadata{}, false)
	case CommandAcceptStrategy:
		return o.planAccept(state, locale)
	case CommandRejectStrategy:
		return o.planReject(state, locale)
	}

	if assessment := o.guard.Assess(ctx, text); assessment.Acted() {
		return guardrailResult("crisis", i18n.CrisisMessage(locale), nil, TurnMetadata{}, true)
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "reiniciar") || strings.Contains(lower, "reset") {
		*state = *state.Reset()
		return guardrailResult("restart", i18n.RestartMessage(locale), i18n.GreetingQuickReplies(locale), TurnMetadata{}, false)
	}

	if len(input.History) == 0 && !state.Greeted {
		state.Greeted = true
		return guardrailResult("greeting", i18n.Greeting(locale), i18n.GreetingQuickReplies(locale), TurnMetadata{}, false)
	}

	state.Slots = o.extractor.Extract(ctx, text, state.Slots)
	state.Iteration++
	if state.ConversationPhase == session.ConversationInitial {
		state.ConversationPhase = session.ConversationExploration
	}

	if state.Slots.Feeling == "" && state.Iteration <= FeelingGateMaxIteration {
		return guardrailResult("ask_feeling", i18n.AskFeeling(locale), i18n.GreetingQuickReplies(locale), TurnMetadata{}, false)
	}

	if state.Slots.QualitativeKnown() && state.Slots.TimeAvailableMinutes == 0 && !state.StrategyGiven {
		return guardrailResult("ask_time", i18n.AskTime(locale, state.Iteration), i18n.DurationQuickReplies(locale), TurnMetadata{}, false)
	}

	if state.Slots.Complete() && !state.StrategyGiven {
		return o.planStrategy(ctx, state, input.Text, locale)
	}

	return o.planFreeConversation(state, locale)
}

// planAccept confirms the pending strategy and hands the client a timer. An
// unusable time budget turns the acceptance into a duration question first.
func (o *Orchestrator) planAccept(state *session.State, locale string) turnPlan {
	minutes := state.Slots.TimeAvailableMinutes
	if minutes < MinUsableTime {
		return guardrailResult("pre_timer", i18n.AskTimePreTimer(locale), i18n.PreTimerQuickReplies(locale), TurnMetadata{}, false)
	}

	name := state.LastStrategy
	if name == "" {
		name = "Estrategia"
		if locale == "en" {
			name = "Strategy"
		}
	}
	state.ConversationPhase = session.ConversationClosure

	metadata := TurnMetadata{
		Strategy:      name,
		StrategySteps: slices.Clone(state.LastStrategySteps),
		TimerConfig:   &TimerConfig{DurationMinutes: minutes, Label: name},
	}
	return guardrailResult("accept", i18n.StrategyAccepted(locale, name, minutes), nil, metadata, false)
}

// planReject records the rejection and either retries with a fresh proposal
// or, past the threshold, redirects out of the strategy flow.
func (o *Orchestrator) planReject(state *session.State, locale string) turnPlan {
	state.Rejections++
	if state.LastStrategy != "" && !slices.Contains(state.RejectedStrategies, state.LastStrategy) {
		state.RejectedStrategies = append(state.RejectedStrategies, state.LastStrategy)
	}

	if state.Rejections >= RejectionRedirectThreshold {
		state.Rejections = 0
		state.RejectedStrategies = nil
		return guardrailResult("reject_redirect", i18n.StrategyRedirect(locale), nil, TurnMetadata{Redirect: RedirectWellness}, false)
	}

	state.StrategyGiven = false
	state.LastStrategy = ""
	return guardrailResult("reject_retry", i18n.StrategyRejectedRetry(locale), i18n.RetryQuickReplies(locale), TurnMetadata{}, false)
}

// planStrategy classifies the situation, picks a strategy and prepares the
// generation prompt anchored to its template.
func (o *Orchestrator) planStrategy(ctx context.Context, state *session.State, userText, locale string) turnPlan {
	quadrant := Classify(state.Slots)
	state.Quadrant = quadrant
	state.OrientationTag = quadrant.Orientation

	minutes := state.Slots.TimeAvailableMinutes
	if minutes == 0 {
		minutes = DefaultTimeBudget
	}

	strategy := o.selector.Select(ctx, SelectionInput{
		Quadrant:  quadrant,
		Slots:     state.Slots,
		QueryText: userText,
		Excluded:  state.RejectedStrategies,
	})

	name := strategy.LocalizedName(locale)
	steps := strategy.LocalizedSteps(locale)
	o.metrics.RecordStrategySelected(strategy.Name)
	state.LastStrategy = name
	state.StrategyGiven = true
	state.LastStrategySteps = steps
	state.ConversationPhase = session.ConversationIntervention

	prompt := withStrategyBlock(
		systemPrompt(quadrant, locale, o.clock()),
		strategy, locale, minutes, state.Slots.TaskType,
	)
	return turnPlan{generate: &generationPlan{
		systemPrompt: prompt,
		fallbackText: fillTemplate(strategy.LocalizedTemplate(locale), minutes, state.Slots.TaskType, locale),
		quickReplies: i18n.AcceptRejectQuickReplies(locale),
		metadata: TurnMetadata{
			Strategy:            name,
			StrategyDescription: strategy.LocalizedDescription(locale),
			StrategySteps:       steps,
		},
		maxTokens: 350,
	}}
}

// planFreeConversation covers both the pre-strategy exploration turns and
// the post-strategy follow-up.
func (o *Orchestrator) planFreeConversation(state *session.State, locale string) turnPlan {
	var prompt string
	if state.StrategyGiven {
		prompt = systemPrompt(state.Quadrant, locale, o.clock())
		if state.LastStrategy != "" {
			prompt = withActiveStrategyNote(prompt, state.LastStrategy, locale)
		}
	} else {
		prompt = freeConversationPrompt(state.Slots, locale, o.clock())
	}

	return turnPlan{generate: &generationPlan{
		systemPrompt: prompt,
		fallbackText: i18n.FallbackError(locale),
		maxTokens:    300,
	}}
}

func (o *Orchestrator) clock() string {
	return o.now().Format("15:04")
}

// buildMessages assembles system + recent history + the user turn. History
// beyond the window is dropped, oldest first.
func buildMessages(systemPrompt string, history []llm.Message, userText string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userText})
	return messages
}

// HandleTurn processes one turn synchronously. It always returns a usable
// result: generation failures fall back to deterministic text.
func (o *Orchestrator) HandleTurn(ctx context.Context, state *session.State, input TurnInput) TurnResult {
	started := o.now()
	st := state.Clone()
	plan := o.planTurn(ctx, st, input)
	st.UpdatedAt = o.now().UTC()

	if plan.guardrail != nil {
		o.metrics.RecordGuardrail(plan.guardrailKind)
		o.metrics.RecordTurn(metrics.OutcomeGuardrail, o.now().Sub(started))
		result := *plan.guardrail
		result.Session = st
		return result
	}

	g := plan.generate
	reply := g.fallbackText
	resp, err := o.client.Complete(ctx, llm.CompletionRequest{
		Messages:    buildMessages(g.systemPrompt, input.History, input.Text),
		Temperature: 0.7,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		o.logger.Error("turn generation failed for session %s: %v", st.SessionID, err)
		o.metrics.RecordGenerationFallback()
	} else {
		reply = resp.Content
	}
	o.metrics.RecordTurn(metrics.OutcomeGenerated, o.now().Sub(started))

	return TurnResult{
		Reply:        reply,
		Session:      st,
		QuickReplies: g.quickReplies,
		Metadata:     g.metadata,
	}
}
