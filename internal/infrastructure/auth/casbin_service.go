package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/you/retaildash/domain"
)

const pageModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

const readWrite = "(GET|POST)"

// pagePolicies lists, per role, the dashboard pages it may open
var pagePolicies = map[domain.Role][]string{
	domain.RoleSuperAdmin: {"/pages/*"},
	domain.RoleStoreAdmin: {
		"/pages/dashboard",
		"/pages/branches",
		"/pages/branch-staff",
		"/pages/offers",
		"/pages/customers",
	},
	domain.RoleBranchStaff: {"/pages/dashboard", "/pages/customers"},
	domain.RoleUser:        {"/pages/dashboard"},
}

type navEntry struct {
	item domain.NavItem
	page string
}

// navigation is the full sidebar in display order
var navigation = []navEntry{
	{domain.NavItem{Label: "Dashboard", Path: "/"}, "/pages/dashboard"},
	{domain.NavItem{Label: "Shops", Path: "/shops"}, "/pages/shops"},
	{domain.NavItem{Label: "Shop Owners", Path: "/shop-owners"}, "/pages/shop-owners"},
	{domain.NavItem{Label: "Branches", Path: "/branches"}, "/pages/branches"},
	{domain.NavItem{Label: "Offers", Path: "/offers"}, "/pages/offers"},
	{domain.NavItem{Label: "Customers", Path: "/customers"}, "/pages/customers"},
}

// CasbinService gates dashboard pages by role. The backend still enforces
// its own rules; this only decides what the dashboard shows.
type CasbinService struct{ E *casbin.Enforcer }

func NewCasbinService() (*CasbinService, error) {
	m, err := model.NewModelFromString(pageModel)
	if err != nil {
		return nil, fmt.Errorf("page model: %w", err)
	}
	E, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, pages := range pagePolicies {
		for _, page := range pages {
			if _, err := E.AddPolicy(Subject(role), page, readWrite); err != nil {
				return nil, fmt.Errorf("seed policy %s %s: %w", role, page, err)
			}
		}
	}
	return &CasbinService{E}, nil
}

// Subject is the casbin subject for a role
func Subject(role domain.Role) string {
	return "role_" + string(role)
}

func (s *CasbinService) Allowed(role domain.Role, page, action string) (bool, error) {
	return s.E.Enforce(Subject(role), page, action)
}

// Navigation returns the sidebar entries role may open, in display order
func (s *CasbinService) Navigation(role domain.Role) []domain.NavItem {
	items := make([]domain.NavItem, 0, len(navigation))
	for _, entry := range navigation {
		ok, err := s.Allowed(role, entry.page, "GET")
		if err != nil || !ok {
			continue
		}
		items = append(items, entry.item)
	}
	return items
}

var _ domain.PageGate = (*CasbinService)(nil)
