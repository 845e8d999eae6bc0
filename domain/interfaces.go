package domain

import "context"

// APIClient performs JSON calls against the retail backend on behalf of one
// visitor. A nil out discards the response body.
type APIClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// SessionService owns the identity of one visitor
type SessionService interface {
	Start(ctx context.Context)
	RefreshUser(ctx context.Context)
	SendOTP(ctx context.Context, phone string) (OTPResult, error)
	VerifyOTP(ctx context.Context, phone, code string) error
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, in RegisterInput) error
	Logout(ctx context.Context) error
	User() User
	Loading() bool
	State() SessionState
}

// ShopService lists and creates shops
type ShopService interface {
	List(ctx context.Context) ([]Shop, error)
	Create(ctx context.Context, in CreateShopInput) (*Shop, error)
}

// OwnerService manages STORE_ADMIN accounts
type OwnerService interface {
	List(ctx context.Context) ([]ShopOwner, error)
	Create(ctx context.Context, in CreateStoreOwnerInput) error
	AddToShop(ctx context.Context, shopID, phone string) error
}

type BranchService interface {
	List(ctx context.Context) ([]Branch, error)
	Create(ctx context.Context, in CreateBranchInput) (*Branch, error)
}

type StaffService interface {
	List(ctx context.Context) ([]BranchStaffMember, error)
	Create(ctx context.Context, in CreateBranchStaffInput) error
}

type OfferService interface {
	List(ctx context.Context) ([]Offer, error)
	Create(ctx context.Context, in CreateOfferInput) (*Offer, error)
}

// CustomerService registers customers. The actor decides which branch a
// new customer lands in when it is branch staff.
type CustomerService interface {
	List(ctx context.Context, branchID string) ([]Customer, error)
	Create(ctx context.Context, actor User, in CreateCustomerInput) (*Customer, error)
}

// PageGate decides which dashboard pages a role may open
type PageGate interface {
	Allowed(role Role, page, action string) (bool, error)
	Navigation(role Role) []NavItem
}

// CookieStore persists the backend cookies captured for a visitor
type CookieStore interface {
	Load(ctx context.Context, visitorID string) ([]StoredCookie, error)
	Save(ctx context.Context, visitorID string, cookies []StoredCookie) error
	Delete(ctx context.Context, visitorID string) error
}
