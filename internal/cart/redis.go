package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storekeeper/b2b_orders/internal/models"
)

// SessionTTL bounds how long an untouched cart survives. Every write
// refreshes the deadline, so an active browsing session keeps its cart.
const SessionTTL = 24 * time.Hour

// RedisStore persists each cart as a hash keyed by SKU with JSON-encoded
// line items. Mutations are read-modify-write: a cart belongs to a single
// client session, so there is no concurrent writer to race with.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: SessionTTL}
}

func (s *RedisStore) Add(ctx context.Context, key string, item models.LineItem) (models.LineItem, error) {
	raw, err := s.client.HGet(ctx, key, item.SKU).Result()
	switch {
	case err == nil:
		var existing models.LineItem
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			return models.LineItem{}, fmt.Errorf("cart: decode %q: %w", item.SKU, err)
		}
		existing.Quantity += item.Quantity
		existing.TotalPrice = linePrice(existing)
		if err := s.set(ctx, key, existing); err != nil {
			return models.LineItem{}, err
		}
		return existing, nil
	case errors.Is(err, redis.Nil):
		item.TotalPrice = linePrice(item)
		if err := s.set(ctx, key, item); err != nil {
			return models.LineItem{}, err
		}
		return item, nil
	default:
		return models.LineItem{}, fmt.Errorf("cart: read %q: %w", item.SKU, err)
	}
}

func (s *RedisStore) UpdateQuantity(ctx context.Context, key, sku string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, key, sku)
	}

	raw, err := s.client.HGet(ctx, key, sku).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: read %q: %w", sku, err)
	}

	var item models.LineItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return fmt.Errorf("cart: decode %q: %w", sku, err)
	}
	item.Quantity = qty
	item.TotalPrice = linePrice(item)
	return s.set(ctx, key, item)
}

func (s *RedisStore) Remove(ctx context.Context, key, sku string) error {
	return s.client.HDel(ctx, key, sku).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Items(ctx context.Context, key string) ([]models.LineItem, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("cart: read all: %w", err)
	}

	items := make([]models.LineItem, 0, len(raw))
	for sku, v := range raw {
		var item models.LineItem
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return nil, fmt.Errorf("cart: decode %q: %w", sku, err)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

func (s *RedisStore) set(ctx context.Context, key string, item models.LineItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cart: encode %q: %w", item.SKU, err)
	}
	if err := s.client.HSet(ctx, key, item.SKU, data).Err(); err != nil {
		return fmt.Errorf("cart: write %q: %w", item.SKU, err)
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}
