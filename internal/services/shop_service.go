package services

import (
	"context"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
)

// ShopServiceImpl implements domain.ShopService over the backend API
type ShopServiceImpl struct {
	api domain.APIClient
}

// NewShopService creates a shop service bound to one visitor's client
func NewShopService(api domain.APIClient) domain.ShopService {
	return &ShopServiceImpl{api: api}
}

func (s *ShopServiceImpl) List(ctx context.Context) ([]domain.Shop, error) {
	return apiclient.Get[[]domain.Shop](ctx, s.api, "/shops")
}

func (s *ShopServiceImpl) Create(ctx context.Context, in domain.CreateShopInput) (*domain.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := requireFields(field{"name", in.Name}); err != nil {
		return nil, err
	}
	shop, err := apiclient.Post[domain.Shop](ctx, s.api, "/shops", in)
	if err != nil {
		return nil, err
	}
	return &shop, nil
}
