package services

import (
	"context"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
)

// StaffServiceImpl implements domain.StaffService for BRANCH_STAFF accounts
type StaffServiceImpl struct {
	api domain.APIClient
}

func NewStaffService(api domain.APIClient) domain.StaffService {
	return &StaffServiceImpl{api: api}
}

func (s *StaffServiceImpl) List(ctx context.Context) ([]domain.BranchStaffMember, error) {
	return apiclient.Get[[]domain.BranchStaffMember](ctx, s.api, "/auth/branch-staff")
}

func (s *StaffServiceImpl) Create(ctx context.Context, in domain.CreateBranchStaffInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := requireFields(field{"branchId", in.BranchID}, field{"email", in.Email}, field{"password", in.Password}); err != nil {
		return err
	}
	return s.api.Post(ctx, "/auth/branch-staff", in, nil)
}
