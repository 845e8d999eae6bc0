package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/you/retaildash/domain"
)

// APICall is one call seen by MockAPIClient
type APICall struct {
	Method string
	Path   string
	Body   any
}

// MockAPIClient implements domain.APIClient interface for testing
type MockAPIClient struct {
	GetFunc    func(ctx context.Context, path string, out any) error
	PostFunc   func(ctx context.Context, path string, body, out any) error
	DeleteFunc func(ctx context.Context, path string, out any) error

	mu    sync.Mutex
	calls []APICall
}

// NewMockAPIClient creates a new MockAPIClient with default behaviors
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) record(method, path string, body any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, APICall{Method: method, Path: path, Body: body})
}

// Calls returns every call made so far, in order
func (m *MockAPIClient) Calls() []APICall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]APICall(nil), m.calls...)
}

func (m *MockAPIClient) Get(ctx context.Context, path string, out any) error {
	m.record("GET", path, nil)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path, out)
	}
	// Default behavior: empty success
	return nil
}

func (m *MockAPIClient) Post(ctx context.Context, path string, body, out any) error {
	m.record("POST", path, body)
	if m.PostFunc != nil {
		return m.PostFunc(ctx, path, body, out)
	}
	// Default behavior: empty success
	return nil
}

func (m *MockAPIClient) Delete(ctx context.Context, path string, out any) error {
	m.record("DELETE", path, nil)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, path, out)
	}
	// Default behavior: empty success
	return nil
}

// Respond copies v into out through JSON, the way a real response body would
// be decoded
func Respond(out any, v any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// RespondRaw decodes a literal JSON body into out
func RespondRaw(out any, body string) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

// Compile-time interface compliance verification
var _ domain.APIClient = (*MockAPIClient)(nil)
