package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/domain/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/payment"
	"github.com/rubenrizquez10/comicstore/internal/pkg/logging"
	"github.com/rubenrizquez10/comicstore/internal/pkg/money"
)

const (
	tracerName      = "comicstore.order"
	defaultPageSize = 10
	maxPageSize     = 100
)

// LineItem is one {productId, quantity} entry in a checkout request.
type LineItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// PaymentInfo carries the method discriminator and its details.
type PaymentInfo struct {
	Method  string          `json:"paymentMethod"`
	Details payment.Details `json:"paymentDetails"`
}

// Metrics are the checkout instruments, registered in main and injected
// here. Either vector may be nil (tests).
type Metrics struct {
	Requests *prometheus.CounterVec   // checkout_requests_total{outcome}
	Duration *prometheus.HistogramVec // checkout_duration_seconds{outcome}
}

// Service is the order workflow coordinator and the order query component.
//
// Checkout runs a strict sequence: availability check, integer-cent pricing,
// payment charge, locked stock decrement, order persistence. Steps two
// through five share one storage transaction; any failure rolls the
// transaction back completely. A charge that succeeded before a later step
// failed is NOT refunded — the gateway contract gives no idempotent retry
// token, so compensation is left to manual reconciliation.
type Service struct {
	stores     Stores
	tx         Transactor
	strategies Strategies
	metrics    Metrics
}

func NewService(stores Stores, tx Transactor, strategies Strategies, metrics Metrics) *Service {
	return &Service{
		stores:     stores,
		tx:         tx,
		strategies: strategies,
		metrics:    metrics,
	}
}

// CreateOrder produces a persisted COMPLETED order or fails with no
// observable storage effect.
func (s *Service) CreateOrder(ctx context.Context, userID uint, items []LineItem, pay PaymentInfo) (_ *order.Order, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	ctx, span := otel.Tracer(tracerName).Start(ctx, "Order.Create",
		trace.WithAttributes(
			attribute.Int("order.user_id", int(userID)),
			attribute.Int("order.line_count", len(items)),
		),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if s.metrics.Requests != nil {
			s.metrics.Requests.WithLabelValues(outcome).Inc()
		}
		if s.metrics.Duration != nil {
			s.metrics.Duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		}
	}()

	if err := validateItems(items); err != nil {
		return nil, err
	}

	// Step 1: pre-flight availability check. Reads current stock without
	// reserving it; step 4 re-validates under a row lock.
	if err := s.checkAvailability(ctx, s.stores, items); err != nil {
		logger.Info("checkout_stock_unavailable", zap.Error(err))
		return nil, err
	}

	var created *order.Order
	err = s.tx.InTx(ctx, func(tx Stores) error {
		// Step 2: price in integer cents.
		priced, totalCents, perr := s.priceItems(ctx, tx, items)
		if perr != nil {
			return perr
		}
		total := money.FromCents(totalCents)

		// Step 3: single payment attempt, never retried.
		strategy, ok := s.strategies.Get(pay.Method)
		if !ok {
			return fmt.Errorf("%w: %s", payment.ErrUnsupportedMethod, pay.Method)
		}
		result, serr := strategy.Process(ctx, pay.Details, total)
		if serr != nil {
			return fmt.Errorf("%w: %v", payment.ErrFailed, serr)
		}
		if !result.Success {
			return fmt.Errorf("%w: %s", payment.ErrFailed, result.Message)
		}
		span.AddEvent("payment.charged",
			trace.WithAttributes(attribute.String("payment.transaction_id", result.TransactionID)),
		)
		logger.Info("payment_charged",
			zap.String("transaction_id", result.TransactionID),
			zap.String("total", total.String()),
		)

		// Step 4: decrement stock, re-validating sufficiency under lock.
		if err := s.decrementStock(ctx, tx, priced); err != nil {
			return err
		}

		// Step 5: persist order and items as one unit.
		o := &order.Order{
			UserID:      userID,
			Status:      order.StatusCompleted,
			TotalAmount: total,
			Items:       priced,
		}
		if err := tx.Orders().CreateWithItems(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		logger.Warn("checkout_failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("order.id", int(created.ID)))
	logger.Info("checkout_completed",
		zap.Uint("order_id", created.ID),
		zap.Uint("user_id", userID),
		zap.String("total", created.TotalAmount.String()),
	)
	return created, nil
}

func validateItems(items []LineItem) error {
	if len(items) == 0 {
		return order.ErrEmptyItems
	}
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return order.ErrInvalidQuantity
		}
	}
	return nil
}

// checkAvailability confirms every requested quantity fits current stock.
// Read-only; nothing is reserved.
func (s *Service) checkAvailability(ctx context.Context, stores Stores, items []LineItem) error {
	for _, it := range items {
		p, err := stores.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			return productLookupError(err, it.ProductID)
		}
		if p.Stock < it.Quantity {
			return fmt.Errorf("%w para uno o más productos", catalog.ErrInsufficientStock)
		}
	}
	return nil
}

// priceItems computes unit and total prices in integer cents, converting to
// decimal only at the boundary. The captured unit price is the order-time
// snapshot stored on each line.
func (s *Service) priceItems(ctx context.Context, tx Stores, items []LineItem) ([]order.Item, int64, error) {
	priced := make([]order.Item, 0, len(items))
	var totalCents int64
	for _, it := range items {
		p, err := tx.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, 0, productLookupError(err, it.ProductID)
		}
		unitCents := money.ToCents(p.Price)
		totalCents += unitCents * int64(it.Quantity)
		priced = append(priced, order.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money.FromCents(unitCents),
		})
	}
	return priced, totalCents, nil
}

// decrementStock re-reads each product under a FOR UPDATE lock and
// decrements. Sufficiency is re-validated here because time has passed
// since the pre-flight check; no negative stock is ever written.
func (s *Service) decrementStock(ctx context.Context, tx Stores, items []order.Item) error {
	for _, it := range items {
		p, err := tx.Products().FindByIDForUpdate(ctx, it.ProductID)
		if err != nil {
			return productLookupError(err, it.ProductID)
		}
		if p.Stock < it.Quantity {
			return fmt.Errorf("%w para el producto %s", catalog.ErrInsufficientStock, p.Name)
		}
		if err := tx.Products().SetStock(ctx, p.ID, p.Stock-it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func productLookupError(err error, productID uint) error {
	if errors.Is(err, catalog.ErrProductNotFound) {
		return fmt.Errorf("%w: producto con ID %d", catalog.ErrProductNotFound, productID)
	}
	return err
}

// Page is a paginated order listing, newest first.
type Page struct {
	TotalItems  int64         `json:"totalItems"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Orders      []order.Order `json:"orders"`
}

// GetUserOrders lists the caller's orders newest first. limit is capped at
// 100; zero values fall back to page 1 / limit 10.
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	orders, count, err := s.stores.Orders().FindByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	totalPages := int((count + int64(limit) - 1) / int64(limit))
	return &Page{
		TotalItems:  count,
		TotalPages:  totalPages,
		CurrentPage: page,
		Orders:      orders,
	}, nil
}

// GetUserOrder fetches one order owned by the caller, enriched with items
// and product snapshots. An order owned by someone else surfaces as the
// same not-found as a nonexistent id.
func (s *Service) GetUserOrder(ctx context.Context, orderID, userID uint) (*order.Order, error) {
	o, err := s.stores.Orders().FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return o, nil
}
