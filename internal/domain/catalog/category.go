package catalog

import (
	"errors"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("Categoría no encontrada")
	ErrTagNotFound      = errors.New("Etiqueta no encontrada")
)

// Category is simple reference data for products.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

// Tag has a many-to-many association with Product through the product_tags
// join table, which carries nothing beyond the two foreign keys.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tag) TableName() string { return "tags" }
