package catalog

import (
	"errors"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("Producto no encontrado")
	ErrInsufficientStock = errors.New("Stock insuficiente")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock      = errors.New("catalog: stock must be zero or greater")
	// ErrDuplicate covers any unique-column collision in the catalog:
	// category or tag name, product SKU or slug.
	ErrDuplicate = errors.New("El recurso ya existe")
)

// Product is a catalog entry for a single comic book.
// Slug and SKU are unique across the catalog; stock never goes negative
// (enforced at the order-workflow boundary).
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Slug            string          `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock           int             `gorm:"not null;default:0" json:"stock"`
	Publisher       string          `gorm:"size:255;not null" json:"publisher"`
	SKU             string          `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Series          *string         `gorm:"size:255" json:"series,omitempty"`
	IssueNumber     *string         `gorm:"size:50" json:"issueNumber,omitempty"`
	PublicationDate *time.Time      `gorm:"type:date" json:"publicationDate,omitempty"`
	Image           *string         `gorm:"size:512" json:"image,omitempty"`
	CategoryID      uint            `gorm:"not null;index" json:"categoryId"`
	Category        *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags            []Tag           `gorm:"many2many:product_tags" json:"tags,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// BaseSlug derives the URL-safe slug from a product name. Uniqueness
// (counter suffixing on collision) is resolved by the catalog service
// against the store.
func BaseSlug(name string) string {
	return slug.Make(name)
}
