package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the cart session does not exist or expired.
var ErrNotFound = errors.New("cart not found")

const keyPrefix = "kasir:cart:"

// Store persists cart documents in Redis with a sliding TTL. Every read and
// write refreshes the expiry so an active sale never times out mid-service.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Redis-backed cart store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

// Get loads a cart document and refreshes its TTL.
func (s *Store) Get(ctx context.Context, id string) (*Doc, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, key(id), s.ttl).Err()
	return &doc, nil
}

// Put stores the cart document and resets its TTL.
func (s *Store) Put(ctx context.Context, doc *Doc) error {
	doc.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(doc.ID), data, s.ttl).Err()
}

// Delete removes the cart session. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}
