package e2e

import (
	"context"
	"fmt"
)

// DefaultPassword is shared by every seeded account
const DefaultPassword = "Retail#123"

// Fixtures are the accounts and places seeded into a fresh backend
type Fixtures struct {
	SuperAdminEmail string
	OwnerEmail      string
	OwnerPhone      string
	StaffEmail      string

	ShopID      string
	OtherShopID string
	BranchID    string
}

// Seed creates a super-admin, one shop run by a store admin with a single
// staffed branch, and a second shop with no owner
func (b *Backend) Seed(ctx context.Context) (*Fixtures, error) {
	f := &Fixtures{
		SuperAdminEmail: "root@retail.test",
		OwnerEmail:      "owner@retail.test",
		OwnerPhone:      "+919876500001",
		StaffEmail:      "staff@retail.test",
	}
	db := b.store.db.WithContext(ctx)

	root := &DBUser{Email: &f.SuperAdminEmail, Phone: "+919876500000", Role: "SUPERADMIN"}
	if err := b.store.createUser(ctx, root, DefaultPassword); err != nil {
		return nil, fmt.Errorf("seed super admin: %w", err)
	}

	shop := DBShop{Name: "Main Street Mart"}
	other := DBShop{Name: "Lake View Stores"}
	if err := db.Create(&shop).Error; err != nil {
		return nil, err
	}
	if err := db.Create(&other).Error; err != nil {
		return nil, err
	}

	owner := &DBUser{Email: &f.OwnerEmail, Phone: f.OwnerPhone, Role: "STORE_ADMIN"}
	if err := b.store.createUser(ctx, owner, DefaultPassword); err != nil {
		return nil, fmt.Errorf("seed owner: %w", err)
	}
	if err := db.Create(&DBShopOwner{ShopID: shop.ID, UserID: owner.ID}).Error; err != nil {
		return nil, err
	}

	branch := DBBranch{ShopID: shop.ID, Name: "MG Road", Location: "Bengaluru"}
	if err := db.Create(&branch).Error; err != nil {
		return nil, err
	}

	staff := &DBUser{Email: &f.StaffEmail, Phone: "+919876500002", Role: "BRANCH_STAFF", BranchID: &branch.ID}
	if err := b.store.createUser(ctx, staff, DefaultPassword); err != nil {
		return nil, fmt.Errorf("seed staff: %w", err)
	}

	f.ShopID = idString(shop.ID)
	f.OtherShopID = idString(other.ID)
	f.BranchID = idString(branch.ID)
	return f, nil
}
