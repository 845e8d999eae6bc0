package services

import "github.com/you/retaildash/domain"

// Catalog bundles the resource services of one visitor
type Catalog struct {
	Shops     domain.ShopService
	Owners    domain.OwnerService
	Branches  domain.BranchService
	Staff     domain.StaffService
	Offers    domain.OfferService
	Customers domain.CustomerService
}

// NewCatalog binds every resource service to api
func NewCatalog(api domain.APIClient) *Catalog {
	return &Catalog{
		Shops:     NewShopService(api),
		Owners:    NewOwnerService(api),
		Branches:  NewBranchService(api),
		Staff:     NewStaffService(api),
		Offers:    NewOfferService(api),
		Customers: NewCustomerService(api),
	}
}
