package fabric

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAdapter_CreateAgentDispatch_SucceedsWithDeterministicID(t *testing.T) {
	m := NewMockAdapter()
	ctx := context.Background()

	id1, err := m.CreateAgentDispatch(ctx, AgentDispatchRequest{AgentName: "postop-followup-agent", RoomName: "room-1"})
	require.NoError(t, err)
	id2, err := m.CreateAgentDispatch(ctx, AgentDispatchRequest{AgentName: "postop-followup-agent", RoomName: "room-2"})
	require.NoError(t, err)

	assert.Equal(t, "dispatch-1", id1)
	assert.Equal(t, "dispatch-2", id2)
	assert.Len(t, m.DispatchCalls, 2)
}

func TestMockAdapter_CreateSIPParticipant_ReturnsScriptedSIPError(t *testing.T) {
	m := NewMockAdapter()
	m.NextSIPStatus = "486"
	m.NextSIPText = "Busy Here"

	_, err := m.CreateSIPParticipant(context.Background(), SIPCallRequest{PhoneNumber: "+15551234567"})
	require.Error(t, err)

	var sipErr *SIPError
	require.True(t, errors.As(err, &sipErr))
	assert.Equal(t, "486", sipErr.SIPStatusCode)
	assert.Contains(t, sipErr.Error(), "486")
}

func TestMockAdapter_CreateSIPParticipant_SucceedsWhenNoStatusScripted(t *testing.T) {
	m := NewMockAdapter()
	id, err := m.CreateSIPParticipant(context.Background(), SIPCallRequest{PhoneNumber: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, "participant-1", id)
}
