package httppresentation

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appauth "github.com/rubenrizquez10/comicstore/internal/application/auth"
	appcatalog "github.com/rubenrizquez10/comicstore/internal/application/catalog"
	apporder "github.com/rubenrizquez10/comicstore/internal/application/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/domain/payment"
	"github.com/rubenrizquez10/comicstore/internal/domain/user"
)

// Metrics are the HTTP instruments, registered in main and injected here.
type Metrics struct {
	Requests *prometheus.CounterVec   // http_requests_total{method,route,status}
	Duration *prometheus.HistogramVec // http_request_duration_seconds{method,route}
}

type Handler struct {
	orders  *apporder.Service
	catalog *appcatalog.Service
	auth    *appauth.Service
	log     *zap.Logger
	metrics Metrics
}

func NewHandler(orders *apporder.Service, catalogSvc *appcatalog.Service, auth *appauth.Service, logger *zap.Logger, metrics Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orders:  orders,
		catalog: catalogSvc,
		auth:    auth,
		log:     logger.With(zap.String("component", "http_server")),
		metrics: metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Trace → request logger → access log + metrics → handler.
	r.Use(h.withTrace)
	r.Use(h.withRequestLogger)
	r.Use(h.withAccessLog)

	r.Get("/health", h.handleHealth)

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Get("/products", h.handleListProducts)
	r.Get("/products/p/{idSlug}", h.handleGetProductBySlug)
	r.Get("/products/{id}", h.handleGetProduct)
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{id}", h.handleGetCategory)
	r.Get("/tags", h.handleListTags)
	r.Get("/tags/{id}", h.handleGetTag)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/users/profile", h.handleGetProfile)
		r.Put("/users/profile", h.handleUpdateProfile)
		r.Get("/users", h.handleListUsers)
		r.Get("/users/{id}", h.handleGetUser)
		r.Put("/users/{id}", h.handleUpdateUser)
		r.Delete("/users/{id}", h.handleDeleteUser)

		r.Post("/products", h.handleCreateProduct)
		r.Put("/products/{id}", h.handleUpdateProduct)
		r.Delete("/products/{id}", h.handleDeleteProduct)

		r.Post("/categories", h.handleCreateCategory)
		r.Put("/categories/{id}", h.handleUpdateCategory)
		r.Delete("/categories/{id}", h.handleDeleteCategory)

		r.Post("/tags", h.handleCreateTag)
		r.Put("/tags/{id}", h.handleUpdateTag)
		r.Delete("/tags/{id}", h.handleDeleteTag)

		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders", h.handleListOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "fullName, email y password son requeridos")
		return
	}
	u, token, err := h.auth.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, authResponse{User: u, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}
	var in appauth.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	updated, err := h.auth.UpdateUser(r.Context(), u.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": updated})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	u, err := h.auth.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var in appauth.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	u, err := h.auth.UpdateUser(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.auth.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createOrderRequest struct {
	Items          []apporder.LineItem `json:"items"`
	PaymentMethod  string              `json:"paymentMethod"`
	PaymentDetails payment.Details     `json:"paymentDetails"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	if req.PaymentMethod == "" || req.PaymentDetails == (payment.Details{}) {
		writeFail(w, http.StatusBadRequest, "La información de pago es requerida")
		return
	}

	created, err := h.orders.CreateOrder(r.Context(), u.ID, req.Items, apporder.PaymentInfo{
		Method:  req.PaymentMethod,
		Details: req.PaymentDetails,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"order": created})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.orders.GetUserOrders(r.Context(), u.ID, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	o, err := h.orders.GetUserOrder(r.Context(), id, u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"order": o})
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	f := catalog.Filter{
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 10),
		Search:    r.URL.Query().Get("search"),
		Publisher: r.URL.Query().Get("publisher"),
		Series:    r.URL.Query().Get("series"),
	}
	if v := r.URL.Query().Get("category"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			f.CategoryID = uint(id)
		}
	}
	if v := r.URL.Query().Get("tags"); v != "" {
		f.TagIDs = parseIDList(v)
	}
	if v := r.URL.Query().Get("price_min"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.PriceMin = &d
		}
	}
	if v := r.URL.Query().Get("price_max"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.PriceMax = &d
		}
	}

	result, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"product": p})
}

// handleGetProductBySlug serves the public {id}-{slug} URL. A stale slug
// redirects permanently to the canonical location.
func (h *Handler) handleGetProductBySlug(w http.ResponseWriter, r *http.Request) {
	rawID, slugPart, found := strings.Cut(chi.URLParam(r, "idSlug"), "-")
	if !found {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), uint(id))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if p.Slug != slugPart {
		http.Redirect(w, r, fmt.Sprintf("/products/p/%d-%s", p.ID, p.Slug), http.StatusMovedPermanently)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"product": p})
}

// writeCatalogError treats a missing product as a resource lookup miss
// (404), unlike product references inside an order which are client data
// problems (400).
func writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeFail(w, http.StatusNotFound, err.Error())
		return
	}
	writeDomainError(w, err)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in appcatalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	if in.Name == "" || in.SKU == "" || in.Publisher == "" || in.CategoryID == 0 {
		writeFail(w, http.StatusBadRequest, "name, sku, publisher y categoryId son requeridos")
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var in appcatalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeFail(w, http.StatusBadRequest, "name es requerido")
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"category": c})
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	c, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"category": c})
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	c, err := h.catalog.UpdateCategory(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"category": c})
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *Handler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeFail(w, http.StatusBadRequest, "name es requerido")
		return
	}
	t, err := h.catalog.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"tag": t})
}

func (h *Handler) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	tag, err := h.catalog.GetTag(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tag": tag})
}

func (h *Handler) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	tag, err := h.catalog.UpdateTag(r.Context(), id, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tag": tag})
}

func (h *Handler) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.catalog.DeleteTag(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseIDList(csv string) []uint {
	var ids []uint
	for _, part := range strings.Split(csv, ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
