package fabric

import (
	"context"
	"testing"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerAdapter_PassesThroughSuccess(t *testing.T) {
	mock := NewMockAdapter()
	b := NewBreakerAdapter(mock)

	id, err := b.CreateAgentDispatch(context.Background(), AgentDispatchRequest{AgentName: "postop-followup-agent", RoomName: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, "dispatch-1", id)
}

func TestBreakerAdapter_TripsAfterConsecutiveSIPFailures(t *testing.T) {
	mock := NewMockAdapter()
	mock.NextSIPStatus = "503"
	mock.NextSIPText = "Service Unavailable"
	b := NewBreakerAdapter(mock)

	for i := 0; i < 5; i++ {
		_, err := b.CreateSIPParticipant(context.Background(), SIPCallRequest{PhoneNumber: "+15551234567"})
		require.Error(t, err)
	}

	// Breaker should now be open; the underlying mock is not consulted.
	_, err := b.CreateSIPParticipant(context.Background(), SIPCallRequest{PhoneNumber: "+15551234567"})
	require.Error(t, err)
	assert.True(t, callerrors.Is(err, callerrors.KindFabricUnavailable))
}
