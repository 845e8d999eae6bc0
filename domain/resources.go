package domain

import "time"

// ShopRef is the short form of a shop embedded in other resources
type ShopRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// BranchRef is the short form of a branch embedded in other resources
type BranchRef struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Shop     *ShopRef `json:"shop,omitempty"`
}

// ShopCount carries the relation counters the backend attaches to shops
type ShopCount struct {
	Branches int `json:"branches"`
	Users    int `json:"users"`
}

type Shop struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Count *ShopCount `json:"_count,omitempty"`
}

type Branch struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	ShopID   string   `json:"shopId"`
	Shop     *ShopRef `json:"shop,omitempty"`
}

type Offer struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	BranchID    string     `json:"branchId"`
	Branch      *BranchRef `json:"branch,omitempty"`
}

// ShopOwner is a STORE_ADMIN account as listed by the super-admin
type ShopOwner struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	Phone     string    `json:"phone"`
	Shops     []ShopRef `json:"shops"`
	CreatedAt time.Time `json:"createdAt"`
}

// BranchStaffMember is a BRANCH_STAFF account as listed by admins
type BranchStaffMember struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Branch    BranchRef `json:"branch"`
}

type Customer struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email"`
	BranchID  string     `json:"branchId"`
	Branch    *BranchRef `json:"branch,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Request bodies

type CreateShopInput struct {
	Name string `json:"name"`
}

type CreateStoreOwnerInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ShopID   string `json:"shopId,omitempty"`
}

type AddShopOwnerInput struct {
	Phone string `json:"phone"`
}

type CreateBranchInput struct {
	ShopID   string `json:"shopId"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type CreateBranchStaffInput struct {
	BranchID string `json:"branchId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateOfferInput struct {
	BranchID    string `json:"branchId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CreateCustomerInput struct {
	BranchID string `json:"branchId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

// RegisterInput creates an account. An empty Role registers a USER.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Credentials is the login body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPVerification is the verify-otp body
type OTPVerification struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
