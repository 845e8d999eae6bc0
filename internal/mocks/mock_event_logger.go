package mocks

import (
	"context"
	"sync"

	"github.com/you/retaildash/domain"
)

// MockEventLogger implements domain.SessionEventLogger and keeps every event
type MockEventLogger struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func NewMockEventLogger() *MockEventLogger {
	return &MockEventLogger{}
}

func (m *MockEventLogger) LogEvent(_ context.Context, event *domain.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
}

// Types returns the recorded event types in order
func (m *MockEventLogger) Types() []domain.SessionEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.SessionEventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

// Events returns copies of the recorded events
func (m *MockEventLogger) Events() []domain.SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SessionEvent(nil), m.events...)
}

var _ domain.SessionEventLogger = (*MockEventLogger)(nil)
