package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rubenrizquez10/comicstore/internal/domain/payment"
	"github.com/rubenrizquez10/comicstore/internal/pkg/logging"
)

// CreditCard charges cards through the external gateway. The gateway is
// simulated here with the same token semantics the sandbox environment
// uses: "invalid_token" and "insufficient_funds" are declined, anything
// else is accepted. Charges are not idempotent; a retry needs a new token.
type CreditCard struct{}

func NewCreditCard() *CreditCard {
	return &CreditCard{}
}

func (c *CreditCard) Process(ctx context.Context, details payment.Details, amount decimal.Decimal) (payment.Result, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "creditcard_gateway"))

	if details.CardToken == "" || details.Currency == "" {
		return payment.Result{
			Success: false,
			Message: "Datos de pago incompletos: cardToken y currency son requeridos",
		}, nil
	}
	if amount.IsNegative() {
		return payment.Result{
			Success: false,
			Message: "El monto debe ser mayor o igual a cero",
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return payment.Result{}, err
	}

	switch details.CardToken {
	case "invalid_token":
		logger.Info("charge_declined", zap.String("reason", "invalid_token"))
		return payment.Result{Success: false, Message: "Tarjeta rechazada por el banco"}, nil
	case "insufficient_funds":
		logger.Info("charge_declined", zap.String("reason", "insufficient_funds"))
		return payment.Result{Success: false, Message: "Fondos insuficientes"}, nil
	}

	txnID := fmt.Sprintf("txn_%s", uuid.NewString())
	logger.Info("charge_accepted",
		zap.String("transaction_id", txnID),
		zap.String("amount", amount.String()),
		zap.String("currency", details.Currency),
	)
	return payment.Result{
		Success:       true,
		TransactionID: txnID,
		Message:       "Pago procesado exitosamente",
	}, nil
}
