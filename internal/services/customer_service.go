package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/phone"
)

type CustomerServiceImpl struct {
	api domain.APIClient
}

func NewCustomerService(api domain.APIClient) domain.CustomerService {
	return &CustomerServiceImpl{api: api}
}

// List returns the customers of branchID, or every visible customer when
// branchID is empty
func (s *CustomerServiceImpl) List(ctx context.Context, branchID string) ([]domain.Customer, error) {
	path := "/customers"
	if branchID != "" {
		path += "?branchId=" + url.QueryEscape(branchID)
	}
	return apiclient.Get[[]domain.Customer](ctx, s.api, path)
}

// Create registers a customer. Branch staff always register into their own
// branch, whatever the input says.
func (s *CustomerServiceImpl) Create(ctx context.Context, actor domain.User, in domain.CreateCustomerInput) (*domain.Customer, error) {
	if staff, ok := actor.(domain.BranchStaff); ok {
		if staff.BranchID == "" {
			return nil, domain.ErrBranchRequired
		}
		in.BranchID = staff.BranchID
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := requireFields(field{"branchId", in.BranchID}, field{"name", in.Name}); err != nil {
		return nil, err
	}

	wire, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, err
	}
	in.Phone = wire

	customer, err := apiclient.Post[domain.Customer](ctx, s.api, "/customers", in)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
