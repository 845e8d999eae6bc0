package visitors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/retaildash/domain"
)

// RedisCookieStore implements domain.CookieStore using Redis so visitors
// survive a restart of the dashboard
type RedisCookieStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCookieStore creates a store whose entries expire after ttl
func NewRedisCookieStore(client *redis.Client, ttl time.Duration) domain.CookieStore {
	return &RedisCookieStore{
		client: client,
		prefix: "visitor:",
		ttl:    ttl,
	}
}

func (s *RedisCookieStore) Load(ctx context.Context, visitorID string) ([]domain.StoredCookie, error) {
	data, err := s.client.Get(ctx, s.prefix+visitorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrVisitorNotFound
		}
		return nil, err
	}

	var cookies []domain.StoredCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cookies: %w", err)
	}
	return cookies, nil
}

// Save replaces the stored cookies and restarts the expiry clock
func (s *RedisCookieStore) Save(ctx context.Context, visitorID string, cookies []domain.StoredCookie) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	return s.client.Set(ctx, s.prefix+visitorID, data, s.ttl).Err()
}

func (s *RedisCookieStore) Delete(ctx context.Context, visitorID string) error {
	return s.client.Del(ctx, s.prefix+visitorID).Err()
}
