package order

import "context"

// Repository persists orders. CreateWithItems writes the order row and its
// items as one unit; list results come back newest first.
type Repository interface {
	CreateWithItems(ctx context.Context, o *Order) error
	FindByIDAndUser(ctx context.Context, id, userID uint) (*Order, error)
	FindByUser(ctx context.Context, userID uint, page, limit int) ([]Order, int64, error)
}
