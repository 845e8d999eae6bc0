package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/phone"
)

// OwnerServiceImpl implements domain.OwnerService. Owners are STORE_ADMIN
// accounts created by the super-admin.
type OwnerServiceImpl struct {
	api domain.APIClient
}

func NewOwnerService(api domain.APIClient) domain.OwnerService {
	return &OwnerServiceImpl{api: api}
}

func (s *OwnerServiceImpl) List(ctx context.Context) ([]domain.ShopOwner, error) {
	return apiclient.Get[[]domain.ShopOwner](ctx, s.api, "/auth/store-owners")
}

func (s *OwnerServiceImpl) Create(ctx context.Context, in domain.CreateStoreOwnerInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := requireFields(field{"email", in.Email}, field{"password", in.Password}); err != nil {
		return err
	}
	return s.api.Post(ctx, "/auth/store-owners", in, nil)
}

// AddToShop attaches the account registered under phone to a shop
func (s *OwnerServiceImpl) AddToShop(ctx context.Context, shopID, phoneNumber string) error {
	if err := requireFields(field{"shopId", shopID}); err != nil {
		return err
	}
	wire, err := phone.Normalize(phoneNumber)
	if err != nil {
		return err
	}
	return s.api.Post(ctx, "/shops/"+url.PathEscape(shopID)+"/owners", domain.AddShopOwnerInput{Phone: wire}, nil)
}
