// Package payment defines the payment strategy contract. Methods are
// dispatched by name through a registry so that adding a gateway stays
// additive; today CreditCard is the only variant.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrFailed            = errors.New("Pago fallido")
	ErrUnsupportedMethod = errors.New("Método de pago no soportado")
)

const MethodCreditCard = "CreditCard"

// Details carries the client-supplied payment instructions.
type Details struct {
	CardToken string `json:"cardToken"`
	Currency  string `json:"currency"`
}

// Result is the gateway outcome. A decline is reported with Success=false
// and no error; transport failures are returned as errors. The workflow
// treats both identically.
type Result struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message"`
}

// Strategy charges the given amount against an external gateway.
type Strategy interface {
	Process(ctx context.Context, details Details, amount decimal.Decimal) (Result, error)
}
