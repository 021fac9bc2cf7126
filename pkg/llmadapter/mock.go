package llmadapter

import (
	"context"
	"sync"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
)

// MockClient is an in-memory Client for tests: returns a queued
// response (or error) per call, falling back to a default once the
// queue is empty.
type MockClient struct {
	mu        sync.Mutex
	responses []mockResult
	Default   *Response
	Calls     []Request
}

type mockResult struct {
	resp *Response
	err  error
}

// NewMockClient returns a MockClient whose default reply is an empty
// JSON object, which the analyzer parses as an analysis with no
// recommendations (not as a fallback).
func NewMockClient() *MockClient {
	return &MockClient{Default: &Response{Content: "{}", FinishReason: "end_turn"}}
}

// QueueResponse schedules a successful reply for the next call.
func (m *MockClient) QueueResponse(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResult{resp: &Response{Content: content, FinishReason: "end_turn"}})
}

// QueueUnavailable schedules an LLMUnavailable failure for the next call.
func (m *MockClient) QueueUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResult{err: callerrors.New(callerrors.KindLLMUnavailable, "mock unavailable", nil)})
}

// ChatCompletion returns the next queued result, or Default if empty.
func (m *MockClient) ChatCompletion(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return m.Default, nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next.resp, next.err
}
