package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
)

// CartIDStore keeps the cart id of each shopper session, expiring it after
// ttl without activity.
type CartIDStore struct {
	client redisclient.UniversalClient
	ttl    time.Duration
}

func NewCartIDStore(client redisclient.UniversalClient, ttl time.Duration) *CartIDStore {
	return &CartIDStore{client: client, ttl: ttl}
}

func sessionCartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}

// ForSession returns the slot for one session.
func (s *CartIDStore) ForSession(sessionID string) *SessionSlot {
	return &SessionSlot{store: s, key: sessionCartKey(sessionID)}
}

type SessionSlot struct {
	store *CartIDStore
	key   string
}

func (s *SessionSlot) Load(ctx context.Context) (string, bool, error) {
	id, err := s.store.client.GetEx(ctx, s.key, s.store.ttl).Result()
	if errors.Is(err, redisclient.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load cart id: %w", err)
	}
	return id, id != "", nil
}

func (s *SessionSlot) Save(ctx context.Context, id string) error {
	if err := s.store.client.Set(ctx, s.key, id, s.store.ttl).Err(); err != nil {
		return fmt.Errorf("save cart id: %w", err)
	}
	return nil
}
