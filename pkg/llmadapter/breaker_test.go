package llmadapter

import (
	"context"
	"testing"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerClient_PassesThroughSuccess(t *testing.T) {
	mock := NewMockClient()
	mock.QueueResponse("hello")
	b := NewBreakerClient(mock)

	resp, err := b.ChatCompletion(context.Background(), Request{Model: "claude-sonnet-4-5"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
}

func TestBreakerClient_TripsAfterConsecutiveFailures(t *testing.T) {
	mock := NewMockClient()
	for i := 0; i < 5; i++ {
		mock.QueueUnavailable()
	}
	b := NewBreakerClient(mock)

	for i := 0; i < 5; i++ {
		_, err := b.ChatCompletion(context.Background(), Request{})
		require.Error(t, err)
		assert.True(t, callerrors.Is(err, callerrors.KindLLMUnavailable))
	}

	// Breaker should now be open; the underlying mock is not consulted.
	_, err := b.ChatCompletion(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, callerrors.Is(err, callerrors.KindLLMUnavailable))
}
