package mocks

import (
	"context"

	"github.com/you/retaildash/domain"
)

// MockCookieStore implements domain.CookieStore interface for testing
type MockCookieStore struct {
	LoadFunc   func(ctx context.Context, visitorID string) ([]domain.StoredCookie, error)
	SaveFunc   func(ctx context.Context, visitorID string, cookies []domain.StoredCookie) error
	DeleteFunc func(ctx context.Context, visitorID string) error
}

func NewMockCookieStore() *MockCookieStore {
	return &MockCookieStore{}
}

func (m *MockCookieStore) Load(ctx context.Context, visitorID string) ([]domain.StoredCookie, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, visitorID)
	}
	// Default behavior: nothing stored
	return nil, domain.ErrVisitorNotFound
}

func (m *MockCookieStore) Save(ctx context.Context, visitorID string, cookies []domain.StoredCookie) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, visitorID, cookies)
	}
	return nil
}

func (m *MockCookieStore) Delete(ctx context.Context, visitorID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, visitorID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.CookieStore = (*MockCookieStore)(nil)
