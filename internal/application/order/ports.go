package order

import (
	"context"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/domain/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/payment"
)

// Stores groups the repositories the checkout workflow touches. Inside a
// transaction every accessor is bound to the same underlying tx.
type Stores interface {
	Products() catalog.ProductRepository
	Orders() order.Repository
}

// Transactor runs fn inside one storage transaction; any error rolls back
// every write made through tx.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Stores) error) error
}

// Strategies resolves a payment strategy by method name.
type Strategies interface {
	Get(method string) (payment.Strategy, bool)
}
