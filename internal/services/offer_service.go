package services

import (
	"context"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
)

type OfferServiceImpl struct {
	api domain.APIClient
}

func NewOfferService(api domain.APIClient) domain.OfferService {
	return &OfferServiceImpl{api: api}
}

func (s *OfferServiceImpl) List(ctx context.Context) ([]domain.Offer, error) {
	return apiclient.Get[[]domain.Offer](ctx, s.api, "/offers")
}

// Create publishes an offer. A blank description is left out of the body.
func (s *OfferServiceImpl) Create(ctx context.Context, in domain.CreateOfferInput) (*domain.Offer, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := requireFields(field{"branchId", in.BranchID}, field{"title", in.Title}); err != nil {
		return nil, err
	}
	offer, err := apiclient.Post[domain.Offer](ctx, s.api, "/offers", in)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}
