package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetryRecoversFromTransient(t *testing.T) {
	mock := &MockClient{}
	mock.QueueError(NewTransientError(errors.New("rate limited")))
	mock.Queue("recovered")

	client := WrapWithRetry(mock, fastRetryConfig(3), nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Len(t, mock.Calls(), 2)
}

func TestRetryStopsOnPermanent(t *testing.T) {
	mock := &MockClient{}
	mock.QueueError(NewPermanentError(errors.New("bad api key")))
	mock.Queue("never reached")

	client := WrapWithRetry(mock, fastRetryConfig(3), nil)

	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Len(t, mock.Calls(), 1)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	mock := &MockClient{}
	for range 3 {
		mock.QueueError(NewTransientError(errors.New("still down")))
	}

	client := WrapWithRetry(mock, fastRetryConfig(3), nil)

	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Len(t, mock.Calls(), 3)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	mock := &MockClient{}
	mock.QueueError(NewTransientError(errors.New("down")))

	client := WrapWithRetry(mock, RetryConfig{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamCompleteIsNotRetried(t *testing.T) {
	mock := &MockClient{}
	mock.QueueError(NewTransientError(errors.New("down")))

	client := WrapWithRetry(mock, fastRetryConfig(3), nil)

	_, err := client.StreamComplete(context.Background(), CompletionRequest{}, StreamCallbacks{})
	require.Error(t, err)
	assert.Len(t, mock.Calls(), 1)
}
