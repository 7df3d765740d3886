package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter is a conjunctive predicate set for product listing. Zero values
// mean "no constraint".
type Filter struct {
	CategoryID uint
	TagIDs     []uint
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	Search     string
	Publisher  string
	Series     string
	Page       int
	Limit      int
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	// FindByIDForUpdate reads the row under a FOR UPDATE lock so a stock
	// decrement can re-validate sufficiency inside the surrounding
	// transaction.
	FindByIDForUpdate(ctx context.Context, id uint) (*Product, error)
	SetStock(ctx context.Context, id uint, stock int) error
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	ReplaceTags(ctx context.Context, p *Product, tagIDs []uint) error
	List(ctx context.Context, f Filter) ([]Product, int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Category, error)
	List(ctx context.Context) ([]Category, error)
}

type TagRepository interface {
	Create(ctx context.Context, t *Tag) error
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Tag, error)
	List(ctx context.Context) ([]Tag, error)
}
