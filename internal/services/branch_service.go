package services

import (
	"context"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
)

type BranchServiceImpl struct {
	api domain.APIClient
}

func NewBranchService(api domain.APIClient) domain.BranchService {
	return &BranchServiceImpl{api: api}
}

func (s *BranchServiceImpl) List(ctx context.Context) ([]domain.Branch, error) {
	return apiclient.Get[[]domain.Branch](ctx, s.api, "/branches")
}

func (s *BranchServiceImpl) Create(ctx context.Context, in domain.CreateBranchInput) (*domain.Branch, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	if err := requireFields(field{"shopId", in.ShopID}, field{"name", in.Name}, field{"location", in.Location}); err != nil {
		return nil, err
	}
	branch, err := apiclient.Post[domain.Branch](ctx, s.api, "/branches", in)
	if err != nil {
		return nil, err
	}
	return &branch, nil
}
