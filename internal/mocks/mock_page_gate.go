package mocks

import "github.com/you/retaildash/domain"

// MockPageGate implements domain.PageGate for testing
type MockPageGate struct {
	AllowedFunc    func(role domain.Role, page, action string) (bool, error)
	NavigationFunc func(role domain.Role) []domain.NavItem
	checks         [][]string
}

// Compile-time interface compliance verification
var _ domain.PageGate = (*MockPageGate)(nil)

// NewMockPageGate creates a gate that allows everything
func NewMockPageGate() *MockPageGate {
	return &MockPageGate{}
}

func (m *MockPageGate) Allowed(role domain.Role, page, action string) (bool, error) {
	m.checks = append(m.checks, []string{string(role), page, action})
	if m.AllowedFunc != nil {
		return m.AllowedFunc(role, page, action)
	}
	// Default behavior: allow
	return true, nil
}

func (m *MockPageGate) Navigation(role domain.Role) []domain.NavItem {
	if m.NavigationFunc != nil {
		return m.NavigationFunc(role)
	}
	return []domain.NavItem{{Label: "Dashboard", Path: "/"}}
}

// Checks returns every (role, page, action) passed to Allowed
func (m *MockPageGate) Checks() [][]string {
	return m.checks
}
