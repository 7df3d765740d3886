package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rubenrizquez10/comicstore/internal/domain/order"
)

type orderRepository struct {
	db *gorm.DB
}

// CreateWithItems inserts the order row and its items in one write; GORM
// cascades the Items association within the caller's transaction.
func (r *orderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit("Items.Product").Create(o).Error
}

func (r *orderRepository) FindByIDAndUser(ctx context.Context, id, userID uint) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID uint, page, limit int) ([]order.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	err := q.Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}
