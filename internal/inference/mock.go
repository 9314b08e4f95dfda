package inference

import (
	"context"
	"sync"
)

// MockClient is a test double that records every request it receives.
type MockClient struct {
	mu    sync.Mutex
	calls []*VisionRequest

	// ConfiguredValue is returned from Configured.
	ConfiguredValue bool

	// Response/Err control what Extract returns.
	Response *VisionResult
	Err      error
}

// NewMockClient returns a configured mock with the given canned content.
func NewMockClient(content string) *MockClient {
	return &MockClient{
		ConfiguredValue: true,
		Response:        &VisionResult{Content: content, ModelUsed: "mock"},
	}
}

func (m *MockClient) Extract(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockClient) Configured() bool {
	return m.ConfiguredValue
}

func (m *MockClient) Name() string {
	return "mock"
}

// CallCount returns how many Extract calls were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent request, or nil.
func (m *MockClient) LastCall() *VisionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
