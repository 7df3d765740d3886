package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	appauth "github.com/rubenrizquez10/comicstore/internal/application/auth"
	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/domain/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/payment"
	"github.com/rubenrizquez10/comicstore/internal/domain/user"
)

// envelope is the uniform response body: status is "success", "fail"
// (client-caused) or "error" (server-caused).
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= 500 {
		kind = "error"
	}
	writeJSON(w, status, envelope{Status: kind, Message: message})
}

// writeDomainError maps domain sentinels to the HTTP taxonomy. A product
// missing inside an order is a client data problem (400, not 404); an order
// owned by someone else surfaces as the same 404 as a nonexistent one.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrFailed):
		writeFail(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, payment.ErrUnsupportedMethod),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidQuantity):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrTagNotFound),
		errors.Is(err, user.ErrNotFound):
		writeFail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, catalog.ErrDuplicate):
		writeFail(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, appauth.ErrInvalidToken),
		errors.Is(err, appauth.ErrExpiredToken):
		writeFail(w, http.StatusUnauthorized, err.Error())
	default:
		writeFail(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}
