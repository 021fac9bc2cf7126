package fabric

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter is an in-memory Adapter for tests, scripted to return
// either success or a *SIPError with a chosen status code per call.
type MockAdapter struct {
	mu             sync.Mutex
	DispatchCalls  []AgentDispatchRequest
	SIPCalls       []SIPCallRequest
	NextSIPStatus  string // "" = succeed
	NextSIPText    string
	dispatchCount  int
	sipCount       int
}

// NewMockAdapter returns an Adapter that succeeds by default.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// CreateAgentDispatch always succeeds with a deterministic dispatch id.
func (m *MockAdapter) CreateAgentDispatch(_ context.Context, req AgentDispatchRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DispatchCalls = append(m.DispatchCalls, req)
	m.dispatchCount++
	return fmt.Sprintf("dispatch-%d", m.dispatchCount), nil
}

// CreateSIPParticipant returns a SIPError carrying NextSIPStatus when
// set, otherwise succeeds.
func (m *MockAdapter) CreateSIPParticipant(_ context.Context, req SIPCallRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SIPCalls = append(m.SIPCalls, req)
	m.sipCount++

	if m.NextSIPStatus != "" {
		return "", &SIPError{
			Message:       "mock SIP failure",
			SIPStatusCode: m.NextSIPStatus,
			SIPStatusText: m.NextSIPText,
		}
	}
	return fmt.Sprintf("participant-%d", m.sipCount), nil
}
