package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flou/internal/i18n"
	"flou/internal/llm"
	"flou/internal/session"
)

func newTestOrchestrator(t *testing.T, client llm.Client, guardClient llm.Client) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(client, HeuristicExtractor{}, NewCrisisGuard(guardClient, nil), NewRuleSelector(testCatalog(t)), nil)
	o.now = func() time.Time { return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC) }
	return o
}

func completeSlots() session.Slots {
	return session.Slots{
		Feeling:              session.FeelingBoredom,
		TaskType:             session.TaskEssay,
		Deadline:             session.DeadlineThisWeek,
		Phase:                session.PhaseExecution,
		TimeAvailableMinutes: 25,
	}
}

func TestHandleTurnGreetingCommand(t *testing.T) {
	client := &llm.MockClient{}
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: CommandGreeting, Locale: "es"})
	assert.Equal(t, i18n.Greeting("es"), got.Reply)
	assert.Len(t, got.QuickReplies, 4)
	assert.True(t, got.Session.Greeted)
	assert.Empty(t, client.Calls())
}

func TestHandleTurnFirstContactGreets(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "hola", Locale: "es"})
	assert.Equal(t, i18n.Greeting("es"), got.Reply)
	assert.True(t, got.Session.Greeted)
}

func TestHandleTurnRestartKeyword(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots = completeSlots()
	state.StrategyGiven = true

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "quiero REINICIAR todo", Locale: "es"})
	assert.Equal(t, i18n.RestartMessage("es"), got.Reply)
	assert.Equal(t, "s1", got.Session.SessionID)
	assert.Equal(t, "u1", got.Session.UserID)
	assert.Empty(t, got.Session.Slots.Feeling)
	assert.False(t, got.Session.StrategyGiven)
	assert.Len(t, got.QuickReplies, 4)
}

func TestHandleTurnFeelingGate(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "tengo que trabajar en algo", Locale: "es"})
	assert.Equal(t, i18n.AskFeeling("es"), got.Reply)
	assert.Len(t, got.QuickReplies, 4)
	assert.Equal(t, 1, got.Session.Iteration)
}

func TestHandleTurnFeelingGateExpires(t *testing.T) {
	client := (&llm.MockClient{}).Queue("sigamos conversando")
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Iteration = FeelingGateMaxIteration

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "no sé qué decirte", Locale: "es"})
	assert.Equal(t, "sigamos conversando", got.Reply)
	assert.Equal(t, FeelingGateMaxIteration+1, got.Session.Iteration)
}

func TestHandleTurnTimeGate(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	slots := completeSlots()
	slots.TimeAvailableMinutes = 0
	state.Slots = slots

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "sigo igual", Locale: "es"})
	assert.Len(t, got.QuickReplies, 4)
	assert.Contains(t, got.QuickReplies[0].Value, "10")
	assert.Zero(t, got.Session.Slots.TimeAvailableMinutes)
}

func TestHandleTurnProposesStrategyWhenSlotsComplete(t *testing.T) {
	client := (&llm.MockClient{}).Queue("Mira, te propongo un sprint con final a la vista. ¿Te animas?")
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots = completeSlots()

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "listo", Locale: "es"})

	assert.True(t, got.Session.StrategyGiven)
	assert.Equal(t, "Pomodoro de arranque", got.Session.LastStrategy)
	assert.Equal(t, "Pomodoro de arranque", got.Metadata.Strategy)
	assert.NotEmpty(t, got.Metadata.StrategySteps)
	assert.Equal(t, session.ConversationIntervention, got.Session.ConversationPhase)

	require.Len(t, got.QuickReplies, 2)
	assert.Equal(t, CommandAcceptStrategy, got.QuickReplies[0].Value)
	assert.Equal(t, CommandRejectStrategy, got.QuickReplies[1].Value)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Content, "Pomodoro de arranque")
}

func TestHandleTurnStrategyGenerationFailureFillsTemplate(t *testing.T) {
	client := (&llm.MockClient{}).QueueError(errors.New("provider down"))
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots = completeSlots()

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "listo", Locale: "es"})

	assert.True(t, got.Session.StrategyGiven)
	assert.Contains(t, got.Reply, "25")
	assert.NotContains(t, got.Reply, "{time}")
	assert.NotContains(t, got.Reply, "{task}")
}

func TestHandleTurnAcceptWithTime(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots = completeSlots()
	state.StrategyGiven = true
	state.LastStrategy = "Pomodoro de arranque"
	state.LastStrategySteps = []string{"Silencia notificaciones"}

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: CommandAcceptStrategy, Locale: "es"})

	assert.Equal(t, i18n.StrategyAccepted("es", "Pomodoro de arranque", 25), got.Reply)
	require.NotNil(t, got.Metadata.TimerConfig)
	assert.Equal(t, 25, got.Metadata.TimerConfig.DurationMinutes)
	assert.Equal(t, "Pomodoro de arranque", got.Metadata.TimerConfig.Label)
	assert.Equal(t, []string{"Silencia notificaciones"}, got.Metadata.StrategySteps)
	assert.Empty(t, got.QuickReplies)
}

func TestHandleTurnAcceptWithoutTimeAsksFirst(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.StrategyGiven = true
	state.LastStrategy = "Pomodoro de arranque"

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: CommandAcceptStrategy, Locale: "es"})

	assert.Equal(t, i18n.AskTimePreTimer("es"), got.Reply)
	require.Len(t, got.QuickReplies, 4)
	for _, qr := range got.QuickReplies {
		assert.True(t, strings.HasPrefix(qr.Value, setTimePrefix))
	}
	assert.Nil(t, got.Metadata.TimerConfig)
}

func TestHandleTurnSetTimeCommandActivatesTimer(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.StrategyGiven = true
	state.LastStrategy = "Pomodoro de arranque"

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "__set_time_45__", Locale: "es"})

	assert.Equal(t, 45, got.Session.Slots.TimeAvailableMinutes)
	require.NotNil(t, got.Metadata.TimerConfig)
	assert.Equal(t, 45, got.Metadata.TimerConfig.DurationMinutes)
}

func TestHandleTurnMalformedSetTimeFallsThrough(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "__set_time_xx__", Locale: "es"})

	assert.Nil(t, got.Metadata.TimerConfig)
	assert.Zero(t, got.Session.Slots.TimeAvailableMinutes)
}

func TestHandleTurnRejectOnceRetries(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.StrategyGiven = true
	state.LastStrategy = "Pomodoro de arranque"

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: CommandRejectStrategy, Locale: "es"})

	assert.Equal(t, i18n.StrategyRejectedRetry("es"), got.Reply)
	assert.Equal(t, 1, got.Session.Rejections)
	assert.Equal(t, []string{"Pomodoro de arranque"}, got.Session.RejectedStrategies)
	assert.False(t, got.Session.StrategyGiven)
	assert.Empty(t, got.Session.LastStrategy)
	assert.Len(t, got.QuickReplies, 3)
}

func TestHandleTurnSecondRejectRedirects(t *testing.T) {
	o := newTestOrchestrator(t, &llm.MockClient{}, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.StrategyGiven = true
	state.LastStrategy = "Plan si-entonces"
	state.Rejections = 1
	state.RejectedStrategies = []string{"Pomodoro de arranque"}

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: CommandRejectStrategy, Locale: "es"})

	assert.Equal(t, i18n.StrategyRedirect("es"), got.Reply)
	assert.Equal(t, RedirectWellness, got.Metadata.Redirect)
	assert.Zero(t, got.Session.Rejections)
	assert.Empty(t, got.Session.RejectedStrategies)
}

func TestHandleTurnRejectedStrategyNotProposedAgain(t *testing.T) {
	client := (&llm.MockClient{}).Queue("probemos otra cosa")
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots = completeSlots()
	state.RejectedStrategies = []string{"Pomodoro de arranque"}

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "listo", Locale: "es"})

	assert.True(t, got.Session.StrategyGiven)
	assert.NotEqual(t, "Pomodoro de arranque", got.Session.LastStrategy)
	assert.NotEmpty(t, got.Session.LastStrategy)
}

func TestHandleTurnCrisisShortCircuits(t *testing.T) {
	client := &llm.MockClient{}
	guardClient := (&llm.MockClient{}).Queue(`{"is_crisis": true, "confidence": 0.95}`)
	o := newTestOrchestrator(t, client, guardClient)
	state := session.New("s1", "u1")
	state.Greeted = true

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "no quiero vivir más", Locale: "es"})

	assert.True(t, got.IsCrisis)
	assert.Equal(t, i18n.CrisisMessage("es"), got.Reply)
	assert.Empty(t, client.Calls())
	assert.Zero(t, got.Session.Iteration)
}

func TestHandleTurnCrisisIdiomContinuesPipeline(t *testing.T) {
	guardClient := (&llm.MockClient{}).Queue(`{"is_crisis": false, "confidence": 0.9}`)
	o := newTestOrchestrator(t, &llm.MockClient{}, guardClient)
	state := session.New("s1", "u1")
	state.Greeted = true

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "quiero acabar con esto de una vez", Locale: "es"})

	assert.False(t, got.IsCrisis)
	assert.Equal(t, i18n.AskFeeling("es"), got.Reply)
}

func TestHandleTurnFreeConversationFallbackOnError(t *testing.T) {
	client := (&llm.MockClient{}).QueueError(errors.New("provider down"))
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots.Feeling = session.FeelingBoredom

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "cuéntame algo", Locale: "es"})
	assert.Equal(t, i18n.FallbackError("es"), got.Reply)
}

func TestHandleTurnDoesNotMutateCallerState(t *testing.T) {
	o := newTestOrchestrator(t, (&llm.MockClient{}).Queue("ok"), nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	before := state.Clone()

	got := o.HandleTurn(context.Background(), state, TurnInput{Text: "estoy aburrido con mi ensayo", Locale: "es"})

	assert.Equal(t, before.Iteration, state.Iteration)
	assert.Equal(t, before.Slots, state.Slots)
	assert.NotEqual(t, state.Iteration, got.Session.Iteration)
}

func TestHandleTurnHistoryWindowTruncation(t *testing.T) {
	client := (&llm.MockClient{}).Queue("ok")
	o := newTestOrchestrator(t, client, nil)
	state := session.New("s1", "u1")
	state.Greeted = true
	state.Slots.Feeling = session.FeelingNeutral

	history := make([]llm.Message, 0, 10)
	for i := range 10 {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: "mensaje"})
	}

	o.HandleTurn(context.Background(), state, TurnInput{Text: "sigo con dudas", Locale: "es", History: history})

	calls := client.Calls()
	require.Len(t, calls, 1)
	// system + HistoryWindow + user turn
	assert.Len(t, calls[0].Messages, HistoryWindow+2)
}
