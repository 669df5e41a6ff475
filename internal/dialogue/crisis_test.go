package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"flou/internal/llm"
)

func TestCrisisGuardNoKeywordSkipsConfirmation(t *testing.T) {
	client := &llm.MockClient{}
	guard := NewCrisisGuard(client, nil)

	got := guard.Assess(context.Background(), "no me motiva nada este ensayo")
	assert.False(t, got.IsCrisis)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Empty(t, client.Calls())
}

func TestCrisisGuardConfirmedHit(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"is_crisis": true, "confidence": 0.95}`)
	guard := NewCrisisGuard(client, nil)

	got := guard.Assess(context.Background(), "no quiero vivir más")
	assert.True(t, got.IsCrisis)
	assert.True(t, got.Acted())

	calls := client.Calls()
	assert.Len(t, calls, 1)
	assert.True(t, calls[0].JSONMode)
	assert.Zero(t, calls[0].Temperature)
}

func TestCrisisGuardIdiomDismissedByConfirmation(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"is_crisis": false, "confidence": 0.9}`)
	guard := NewCrisisGuard(client, nil)

	got := guard.Assess(context.Background(), "quiero acabar con esto de una vez, el informe me tiene harto")
	assert.False(t, got.Acted())
}

func TestCrisisGuardLowConfidenceDoesNotAct(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"is_crisis": true, "confidence": 0.4}`)
	guard := NewCrisisGuard(client, nil)

	got := guard.Assess(context.Background(), "siento que no hay salida, kill myself sounds easier")
	assert.True(t, got.IsCrisis)
	assert.False(t, got.Acted())
}

func TestCrisisGuardFailsSafe(t *testing.T) {
	t.Run("confirmation call error", func(t *testing.T) {
		client := (&llm.MockClient{}).QueueError(errors.New("boom"))
		guard := NewCrisisGuard(client, nil)

		got := guard.Assess(context.Background(), "quiero morir")
		assert.True(t, got.IsCrisis)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})

	t.Run("unparsable confirmation", func(t *testing.T) {
		client := (&llm.MockClient{}).Queue("I cannot judge that")
		guard := NewCrisisGuard(client, nil)

		got := guard.Assess(context.Background(), "quiero morir")
		assert.True(t, got.IsCrisis)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})

	t.Run("nil client", func(t *testing.T) {
		guard := NewCrisisGuard(nil, nil)

		got := guard.Assess(context.Background(), "quiero morir")
		assert.True(t, got.IsCrisis)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})
}

func TestCrisisGuardEnglishVocabulary(t *testing.T) {
	client := (&llm.MockClient{}).Queue(`{"is_crisis": true, "confidence": 0.9}`)
	guard := NewCrisisGuard(client, nil)

	got := guard.Assess(context.Background(), "sometimes I just want to die instead of writing this")
	assert.True(t, got.Acted())
}
