// Package model abstracts language model providers behind a minimal Model
// interface. The agent loop and caption generator depend only on this
// package; provider adapters live in the model/openai and model/anthropic
// subpackages.
package model

import (
	"context"
	"errors"
	"sync"
)

// Request is the normalized model input assembled by callers. Images, when
// present, are raw encoded image bytes attached to the user turn for vision
// capable providers.
type Request struct {
	Instructions string   `json:"instructions"`
	Prompt       string   `json:"prompt"`
	Images       [][]byte `json:"-"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed generation.
type Response struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsVision bool   `json:"supports_vision"`
}

// Model is the minimal interface required to drive generation. Generate
// blocks until the provider returns; transport failures surface as errors
// and are converted to failure intents by the perception layer.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by MockModel when its scripted replies run out.
var ErrNoResponse = errors.New("model: no scripted response left")

type mockReply struct {
	text string
	err  error
}

// MockModel is a scriptable in-memory Model for tests. Replies are consumed
// in the order they were queued; requests are recorded for inspection.
type MockModel struct {
	mu      sync.Mutex
	info    Info
	replies []mockReply
	calls   []Request
}

// NewMockModel constructs a MockModel reporting vision support.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsVision: true},
	}
}

// Queue appends a canned reply text.
func (m *MockModel) Queue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{text: text})
}

// QueueError appends a scripted transport failure.
func (m *MockModel) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{err: err})
}

// Generate implements Model, replaying the next scripted reply.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if len(m.replies) == 0 {
		return nil, ErrNoResponse
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &Response{Text: next.text, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Requests returns the requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
