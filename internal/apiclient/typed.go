package apiclient

import (
	"context"

	"github.com/you/retaildash/domain"
)

// Get fetches path and decodes the body as T
func Get[T any](ctx context.Context, c domain.APIClient, path string) (T, error) {
	var out T
	err := c.Get(ctx, path, &out)
	return out, err
}

// Post sends body to path and decodes the answer as T
func Post[T any](ctx context.Context, c domain.APIClient, path string, body any) (T, error) {
	var out T
	err := c.Post(ctx, path, body, &out)
	return out, err
}

func Delete[T any](ctx context.Context, c domain.APIClient, path string) (T, error) {
	var out T
	err := c.Delete(ctx, path, &out)
	return out, err
}

var _ domain.APIClient = (*Client)(nil)
