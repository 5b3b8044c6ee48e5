package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider is a mock provider that returns a pre-defined
// sequence of responses. Useful for testing multi-round turns where the
// model alternates between tool calls and a final answer.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []ChatResponse
	Err       error
	// CallCount tracks how many times Chat has been called.
	CallCount int
	// Requests records every request received, in order.
	Requests []ChatRequest
	// Loop repeats the last response forever instead of draining.
	Loop bool
}

// NewScriptedMockProvider creates a mock that answers with plain text.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	s := &ScriptedMockProvider{}
	for _, r := range responses {
		s.Responses = append(s.Responses, ChatResponse{Content: r})
	}
	return s
}

// NewScriptedResponses creates a mock from fully-formed responses,
// including tool-call responses.
func NewScriptedResponses(responses ...ChatResponse) *ScriptedMockProvider {
	return &ScriptedMockProvider{Responses: responses}
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedMockProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	s.Requests = append(s.Requests, req)

	if s.Err != nil {
		return nil, s.Err
	}

	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	resp := s.Responses[0]
	if !s.Loop || len(s.Responses) > 1 {
		s.Responses = s.Responses[1:]
	}

	resp.Usage = Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20}
	return &resp, nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(resp ChatResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, resp)
}

// LastRequest returns the most recent request, or nil.
func (s *ScriptedMockProvider) LastRequest() *ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Requests) == 0 {
		return nil
	}
	req := s.Requests[len(s.Requests)-1]
	return &req
}

var _ Provider = (*ScriptedMockProvider)(nil)
