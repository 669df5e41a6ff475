package dialogue

import (
	"context"
	"strings"
	"time"

	"flou/internal/llm"
	"flou/internal/metrics"
	"flou/internal/session"
)

// HandleTurnStream processes one turn and emits progress events on the
// returned channel. The channel is closed when the turn finishes or the
// context is cancelled. Event order per turn: start, then either a guardrail
// event or a token stream (with optional quick_reply and metadata), then
// session_state and done. An error event may precede the fallback tokens.
// A cancelled turn stops mid-stream without a done event but still delivers
// a final session_state carrying the partial mutations, so callers must
// drain the channel until it closes and persist that state.
func (o *Orchestrator) HandleTurnStream(ctx context.Context, state *session.State, input TurnInput) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		o.streamTurn(ctx, state, input, ch)
	}()
	return ch
}

func (o *Orchestrator) streamTurn(ctx context.Context, state *session.State, input TurnInput, ch chan<- Event) {
	emit := func(event Event) bool {
		select {
		case ch <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	started := o.now()
	st := state.Clone()
	if !emit(Event{Type: EventStart, Data: map[string]any{
		"session_id": st.SessionID,
		"timestamp":  o.now().UTC().Format(time.RFC3339),
	}}) {
		return
	}

	plan := o.planTurn(ctx, st, input)
	st.UpdatedAt = o.now().UTC()

	// From here on the clone carries this turn's mutations. Whatever path
	// exits, including cancellation, the state must reach the caller; emit
	// cannot be used for that because it gives up once ctx is done.
	stateSent := false
	defer func() {
		if !stateSent {
			ch <- Event{Type: EventSessionState, Data: st}
		}
	}()

	if plan.guardrail != nil {
		o.metrics.RecordGuardrail(plan.guardrailKind)
		o.metrics.RecordTurn(metrics.OutcomeGuardrail, o.now().Sub(started))
		r := plan.guardrail
		if !emit(Event{Type: EventGuardrail, Data: GuardrailPayload{
			Text:         r.Reply,
			QuickReplies: r.QuickReplies,
			IsCrisis:     r.IsCrisis,
		}}) {
			return
		}
		if !r.Metadata.Empty() {
			if !emit(Event{Type: EventMetadata, Data: r.Metadata}) {
				return
			}
		}
		if !emit(Event{Type: EventSessionState, Data: st}) {
			return
		}
		stateSent = true
		emit(Event{Type: EventDone, Data: map[string]any{}})
		return
	}

	g := plan.generate
	var full strings.Builder
	interrupted := false
	callbacks := llm.StreamCallbacks{
		OnContentDelta: func(delta llm.ContentDelta) {
			if delta.Delta == "" {
				return
			}
			full.WriteString(delta.Delta)
			if !emit(Event{Type: EventToken, Data: map[string]string{"text": delta.Delta}}) {
				interrupted = true
			}
		},
	}

	_, err := o.client.StreamComplete(ctx, llm.CompletionRequest{
		Messages:    buildMessages(g.systemPrompt, input.History, input.Text),
		Temperature: 0.7,
		MaxTokens:   g.maxTokens,
	}, callbacks)
	if interrupted || ctx.Err() != nil {
		return
	}
	reply := full.String()
	if err != nil {
		o.logger.Error("streamed generation failed for session %s: %v", st.SessionID, err)
		o.metrics.RecordGenerationFallback()
		if !emit(Event{Type: EventError, Data: map[string]string{"message": "generation failed"}}) {
			return
		}
		reply = g.fallbackText
		if !emit(Event{Type: EventToken, Data: map[string]string{"text": reply}}) {
			return
		}
	}

	if len(g.quickReplies) > 0 {
		if !emit(Event{Type: EventQuickReply, Data: g.quickReplies}) {
			return
		}
	}
	metadata := g.metadata
	metadata.FullReply = reply
	if !metadata.Empty() {
		if !emit(Event{Type: EventMetadata, Data: metadata}) {
			return
		}
	}
	if !emit(Event{Type: EventSessionState, Data: st}) {
		return
	}
	stateSent = true
	o.metrics.RecordTurn(metrics.OutcomeGenerated, o.now().Sub(started))
	emit(Event{Type: EventDone, Data: map[string]any{}})
}
