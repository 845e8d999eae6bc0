package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies what a dashboard account is allowed to manage
type Role string

const (
	RoleSuperAdmin  Role = "SUPERADMIN"
	RoleStoreAdmin  Role = "STORE_ADMIN"
	RoleBranchStaff Role = "BRANCH_STAFF"
	RoleUser        Role = "USER"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleStoreAdmin, RoleBranchStaff, RoleUser:
		return true
	}
	return false
}

// Profile holds the identity fields shared by every role
type Profile struct {
	ID        string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// User is the authenticated identity. Each role is its own variant so that
// role-specific fields only exist where they mean something.
type User interface {
	Role() Role
	Account() Profile
	isUser()
}

// SuperAdmin manages shops and shop owners
type SuperAdmin struct {
	Profile
}

// StoreAdmin manages the branches and offers of its shops
type StoreAdmin struct {
	Profile
	ShopIDs []string
}

// BranchStaff registers customers for a single branch
type BranchStaff struct {
	Profile
	BranchID string
	Branch   *BranchRef
}

// Member is a plain USER account
type Member struct {
	Profile
}

func (SuperAdmin) Role() Role  { return RoleSuperAdmin }
func (StoreAdmin) Role() Role  { return RoleStoreAdmin }
func (BranchStaff) Role() Role { return RoleBranchStaff }
func (Member) Role() Role      { return RoleUser }

func (u SuperAdmin) Account() Profile  { return u.Profile }
func (u StoreAdmin) Account() Profile  { return u.Profile }
func (u BranchStaff) Account() Profile { return u.Profile }
func (u Member) Account() Profile      { return u.Profile }

func (SuperAdmin) isUser()  {}
func (StoreAdmin) isUser()  {}
func (BranchStaff) isUser() {}
func (Member) isUser()      {}

func (u SuperAdmin) MarshalJSON() ([]byte, error)  { return json.Marshal(toWire(u)) }
func (u StoreAdmin) MarshalJSON() ([]byte, error)  { return json.Marshal(toWire(u)) }
func (u BranchStaff) MarshalJSON() ([]byte, error) { return json.Marshal(toWire(u)) }
func (u Member) MarshalJSON() ([]byte, error)      { return json.Marshal(toWire(u)) }

// userWire is the JSON shape the backend uses for every role
type userWire struct {
	ID        string     `json:"id"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email,omitempty"`
	Role      Role       `json:"role"`
	ShopIDs   []string   `json:"shopIds,omitempty"`
	BranchID  *string    `json:"branchId,omitempty"`
	Branch    *BranchRef `json:"branch,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func toWire(u User) userWire {
	p := u.Account()
	w := userWire{ID: p.ID, Phone: p.Phone, Role: u.Role()}
	if p.Email != "" {
		w.Email = &p.Email
	}
	if !p.CreatedAt.IsZero() {
		w.CreatedAt = &p.CreatedAt
	}
	switch v := u.(type) {
	case StoreAdmin:
		w.ShopIDs = v.ShopIDs
	case BranchStaff:
		if v.BranchID != "" {
			w.BranchID = &v.BranchID
		}
		w.Branch = v.Branch
	}
	return w
}

// DecodeUser builds the variant matching the payload's role field.
// Payloads with a missing or unknown role are rejected with ErrUnknownRole.
func DecodeUser(data []byte) (User, error) {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	p := Profile{ID: w.ID, Phone: w.Phone}
	if w.Email != nil {
		p.Email = *w.Email
	}
	if w.CreatedAt != nil {
		p.CreatedAt = *w.CreatedAt
	}

	switch w.Role {
	case RoleSuperAdmin:
		return SuperAdmin{Profile: p}, nil
	case RoleStoreAdmin:
		return StoreAdmin{Profile: p, ShopIDs: w.ShopIDs}, nil
	case RoleBranchStaff:
		staff := BranchStaff{Profile: p, Branch: w.Branch}
		if w.BranchID != nil {
			staff.BranchID = *w.BranchID
		}
		return staff, nil
	case RoleUser:
		return Member{Profile: p}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, w.Role)
	}
}

// Identity wraps a possibly-absent User so it can travel through JSON
type Identity struct {
	User User
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		i.User = nil
		return nil
	}
	u, err := DecodeUser(data)
	if err != nil {
		return err
	}
	i.User = u
	return nil
}

func (i Identity) MarshalJSON() ([]byte, error) {
	if i.User == nil {
		return []byte("null"), nil
	}
	return json.Marshal(i.User)
}

// AuthResponse is the body returned by login and OTP verification
type AuthResponse struct {
	User Identity `json:"user"`
}

// OTPResult is the body returned by send-otp. OTP is only echoed by
// backends running in development mode.
type OTPResult struct {
	OK  bool   `json:"ok"`
	OTP string `json:"otp,omitempty"`
}

// SessionState is the observable phase of a visitor session
type SessionState string

const (
	StateInitializing  SessionState = "INITIALIZING"
	StateAuthenticated SessionState = "AUTHENTICATED"
	StateAnonymous     SessionState = "ANONYMOUS"
)

// NavItem is one entry of the dashboard navigation
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// StoredCookie is a backend cookie captured for a visitor
type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}
