package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/storekeeper/b2b_orders/internal/models"
)

// MemoryStore keeps carts in process memory. Used by tests and single-node
// deployments; entries do not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]map[string]models.LineItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]map[string]models.LineItem)}
}

func (s *MemoryStore) Add(ctx context.Context, key string, item models.LineItem) (models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.carts[key]
	if !ok {
		entries = make(map[string]models.LineItem)
		s.carts[key] = entries
	}

	if existing, ok := entries[item.SKU]; ok {
		existing.Quantity += item.Quantity
		existing.TotalPrice = linePrice(existing)
		entries[item.SKU] = existing
		return existing, nil
	}

	item.TotalPrice = linePrice(item)
	entries[item.SKU] = item
	return item, nil
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, key, sku string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, key, sku)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.carts[key]
	if !ok {
		return nil
	}
	item, ok := entries[sku]
	if !ok {
		return nil
	}
	item.Quantity = qty
	item.TotalPrice = linePrice(item)
	entries[sku] = item
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries, ok := s.carts[key]; ok {
		delete(entries, sku)
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, key)
	return nil
}

func (s *MemoryStore) Items(ctx context.Context, key string) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.carts[key]
	items := make([]models.LineItem, 0, len(entries))
	for _, it := range entries {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}
