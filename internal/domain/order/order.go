package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
)

var (
	ErrNotFound        = errors.New("Orden no encontrada")
	ErrEmptyItems      = errors.New("Los items de la orden son requeridos")
	ErrInvalidQuantity = errors.New("Cada item debe tener productId y quantity válida")
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusCompleted     Status = "COMPLETED"
	StatusCanceled      Status = "CANCELED"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
)

// Order is created only through the checkout workflow and is immutable once
// COMPLETED; no update endpoints exist. TotalAmount is always recomputed
// server-side and equals the sum of its items' unitPrice x quantity.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"userId"`
	Status      Status          `gorm:"type:varchar(20);not null" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Items       []Item          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

// Item is one order line. UnitPrice is the price snapshot captured at order
// time, decoupled from later catalog price changes.
type Item struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	OrderID   uint             `gorm:"not null;index" json:"orderId"`
	ProductID uint             `gorm:"not null" json:"productId"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Product   *catalog.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Item) TableName() string { return "order_items" }
