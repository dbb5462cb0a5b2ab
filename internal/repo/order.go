package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/storekeeper/b2b_orders/internal/models"
	"github.com/storekeeper/b2b_orders/internal/util"
)

var ErrNotFound = errors.New("order not found")

// OrderPatch is a sparse header update: nil fields are left untouched.
// Items, when set, fully replaces the existing item rows.
type OrderPatch struct {
	ContactEmail       *string
	DeliveryAddress    *string
	DeliveryCity       *string
	DeliveryState      *string
	DeliveryPostalCode *string
	PaymentStatus      *string
	PriorityLevel      *int
	Items              []models.OrderItem
	ReplaceItems       bool
}

type OrderRepo struct {
	DB *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{DB: db}
}

// Create inserts the header and all item rows in one transaction, then
// re-reads the full aggregate.
func (r *OrderRepo) Create(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert order items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, order.StoreID, order.ID)
}

func (r *OrderRepo) GetByID(ctx context.Context, storeID, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND store_id = ?", id, storeID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) List(ctx context.Context, storeID uint, page, size int) ([]models.Order, int64, error) {
	offset, limit := util.Calculate(page, size)

	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("store_id = ?", storeID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update applies a sparse header patch and, when the patch carries a
// replacement item set, deletes every existing item row and reinserts the
// new set. Tenant ownership is checked before any mutation.
func (r *OrderRepo) Update(ctx context.Context, storeID, id uint, patch OrderPatch) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND store_id = ?", id, storeID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if patch.ContactEmail != nil {
			order.ContactEmail = *patch.ContactEmail
		}
		if patch.DeliveryAddress != nil {
			order.DeliveryAddress = *patch.DeliveryAddress
		}
		if patch.DeliveryCity != nil {
			order.DeliveryCity = *patch.DeliveryCity
		}
		if patch.DeliveryState != nil {
			order.DeliveryState = *patch.DeliveryState
		}
		if patch.DeliveryPostalCode != nil {
			order.DeliveryPostalCode = *patch.DeliveryPostalCode
		}
		if patch.PaymentStatus != nil {
			order.PaymentStatus = *patch.PaymentStatus
		}
		if patch.PriorityLevel != nil {
			order.PriorityLevel = *patch.PriorityLevel
		}
		order.Items = nil
		if err := tx.Omit("Items").Save(&order).Error; err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if patch.ReplaceItems {
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return fmt.Errorf("delete order items: %w", err)
			}
			items := patch.Items
			for i := range items {
				items[i].ID = 0
				items[i].OrderID = order.ID
				items[i].TotalPrice = float64(items[i].Quantity)*items[i].UnitPrice - items[i].DiscountAmount
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return fmt.Errorf("insert order items: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, storeID, id)
}

// UpdateStatus sets the status and stamps the matching lifecycle timestamp.
// Any transition is allowed; the admin panel may override freely.
func (r *OrderRepo) UpdateStatus(ctx context.Context, storeID, id uint, status string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ? AND store_id = ?", id, storeID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	order.OrderStatus = status
	switch status {
	case models.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	}

	if err := r.DB.WithContext(ctx).Omit("Items").Save(&order).Error; err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	return r.GetByID(ctx, storeID, id)
}

// Delete removes the aggregate: item rows first, then the header.
func (r *OrderRepo) Delete(ctx context.Context, storeID, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND store_id = ?", id, storeID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}
