package httppresentation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appauth "github.com/rubenrizquez10/comicstore/internal/application/auth"
	appcatalog "github.com/rubenrizquez10/comicstore/internal/application/catalog"
	apporder "github.com/rubenrizquez10/comicstore/internal/application/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	domainpayment "github.com/rubenrizquez10/comicstore/internal/domain/payment"
	"github.com/rubenrizquez10/comicstore/internal/infrastructure/gormstore"
	infrapayment "github.com/rubenrizquez10/comicstore/internal/infrastructure/payment"
	httppresentation "github.com/rubenrizquez10/comicstore/internal/presentation/http"
)

type testEnv struct {
	server *httptest.Server
	store  *gormstore.Store
	client *http.Client
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := gormstore.New(db)
	require.NoError(t, store.AutoMigrate())

	strategies := infrapayment.NewRegistry()
	strategies.Register(domainpayment.MethodCreditCard, infrapayment.NewCreditCard())

	handler := httppresentation.NewHandler(
		apporder.NewService(store, store, strategies, apporder.Metrics{}),
		appcatalog.NewService(store.Products(), store.Categories(), store.Tags()),
		appauth.NewService(store.Users(), "test-secret", time.Hour),
		nil,
		httppresentation.Metrics{},
	)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, client: server.Client()}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Test User",
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func (e *testEnv) seedProducts(t *testing.T) (spidermanID, batmanID uint) {
	t.Helper()
	ctx := context.Background()
	cat := &catalog.Category{Name: "Superhéroes"}
	require.NoError(t, e.store.Categories().Create(ctx, cat))

	spiderman := &catalog.Product{
		Name: "The Amazing Spider-Man #1", Slug: "the-amazing-spider-man-1",
		Description: "n1", Price: decimal.RequireFromString("10.99"),
		Stock: 5, Publisher: "Marvel", SKU: "ASM-1", CategoryID: cat.ID,
	}
	require.NoError(t, e.store.Products().Create(ctx, spiderman))

	batman := &catalog.Product{
		Name: "Batman #404", Slug: "batman-404",
		Description: "n404", Price: decimal.RequireFromString("15.50"),
		Stock: 3, Publisher: "DC", SKU: "BAT-404", CategoryID: cat.ID,
	}
	require.NoError(t, e.store.Products().Create(ctx, batman))
	return spiderman.ID, batman.ID
}

func orderBody(token string, items ...map[string]any) map[string]any {
	return map[string]any{
		"items":         items,
		"paymentMethod": "CreditCard",
		"paymentDetails": map[string]string{
			"cardToken": token,
			"currency":  "USD",
		},
	}
}

func (e *testEnv) stockOf(t *testing.T, id uint) int {
	t.Helper()
	p, err := e.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckoutHappyPath(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "peter@dailybugle.com")
	asmID, batID := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, orderBody("tok_visa",
		map[string]any{"productId": asmID, "quantity": 2},
		map[string]any{"productId": batID, "quantity": 1},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	order := body["data"].(map[string]any)["order"].(map[string]any)
	assert.Equal(t, "COMPLETED", order["status"])
	assert.Equal(t, "37.48", order["totalAmount"])

	assert.Equal(t, 3, env.stockOf(t, asmID))
	assert.Equal(t, 2, env.stockOf(t, batID))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "greedy@example.com")
	asmID, _ := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, orderBody("tok_visa",
		map[string]any{"productId": asmID, "quantity": 10},
	))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
	assert.Contains(t, body["message"], "Stock insuficiente")
	assert.Equal(t, 5, env.stockOf(t, asmID))
}

func TestCheckoutPaymentDeclined(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "declined@example.com")
	asmID, _ := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, orderBody("invalid_token",
		map[string]any{"productId": asmID, "quantity": 1},
	))
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
	assert.Contains(t, body["message"], "Pago fallido")
	assert.Equal(t, 5, env.stockOf(t, asmID))
}

func TestCheckoutUnknownProduct(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "ghost@example.com")
	env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, orderBody("tok_visa",
		map[string]any{"productId": 9999, "quantity": 1},
	))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
}

func TestCheckoutRequiresAuth(t *testing.T) {
	env := newEnv(t)
	asmID, _ := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", "", orderBody("tok_visa",
		map[string]any{"productId": asmID, "quantity": 1},
	))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])

	resp, _ = env.request(t, http.MethodPost, "/orders", "garbage-token", orderBody("tok_visa",
		map[string]any{"productId": asmID, "quantity": 1},
	))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutRequiresPaymentInfo(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "nopay@example.com")
	asmID, _ := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"productId": asmID, "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "La información de pago es requerida", body["message"])
}

func TestOrderListingAndDetail(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "history@example.com")
	otherToken := env.registerUser(t, "other@example.com")
	asmID, _ := env.seedProducts(t)

	resp, body := env.request(t, http.MethodPost, "/orders", token, orderBody("tok_visa",
		map[string]any{"productId": asmID, "quantity": 1},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["data"].(map[string]any)["order"].(map[string]any)
	orderID := int(created["id"].(float64))

	resp, body = env.request(t, http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body["data"].(map[string]any)
	assert.Equal(t, float64(1), page["totalItems"])

	detailPath := fmt.Sprintf("/orders/%d", orderID)
	resp, first := env.request(t, http.MethodGet, detailPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, second := env.request(t, http.MethodGet, detailPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, second, "detail reads must be idempotent")

	// Another user's order surfaces as not found, never as forbidden.
	resp, body = env.request(t, http.MethodGet, detailPath, otherToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])

	resp, _ = env.request(t, http.MethodGet, "/orders/424242", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductEndpoints(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "admin@example.com")
	ctx := context.Background()

	cat := &catalog.Category{Name: "Novela gráfica"}
	require.NoError(t, env.store.Categories().Create(ctx, cat))

	resp, body := env.request(t, http.MethodPost, "/products", token, map[string]any{
		"name":        "Maus",
		"description": "Premio Pulitzer",
		"price":       "25.00",
		"stock":       4,
		"publisher":   "Pantheon",
		"sku":         "MAUS-1",
		"categoryId":  cat.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := body["data"].(map[string]any)["product"].(map[string]any)
	assert.Equal(t, "maus", product["slug"])
	productID := int(product["id"].(float64))

	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/products/%d", productID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	resp, body = env.request(t, http.MethodGet, "/products?publisher=Pantheon", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := body["data"].(map[string]any)
	assert.Equal(t, float64(1), listing["totalItems"])

	// Writes require auth.
	resp, _ = env.request(t, http.MethodPost, "/products", "", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/products/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategoryDuplicateNameConflicts(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "curator@example.com")

	resp, _ := env.request(t, http.MethodPost, "/categories", token, map[string]any{"name": "Manga"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, http.MethodPost, "/categories", token, map[string]any{"name": "Manga"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "El recurso ya existe", body["message"])
}

func TestUserProfileEndpoints(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "profile@example.com")
	env.registerUser(t, "taken@example.com")

	resp, body := env.request(t, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "profile@example.com", profile["email"])

	resp, body = env.request(t, http.MethodPut, "/users/profile", token, map[string]any{
		"fullName": "Nombre Nuevo",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Nombre Nuevo", updated["fullName"])
	assert.Equal(t, "profile@example.com", updated["email"], "email untouched by a name-only update")

	resp, body = env.request(t, http.MethodPut, "/users/profile", token, map[string]any{
		"email": "taken@example.com",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])

	resp, _ = env.request(t, http.MethodGet, "/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserAdminEndpoints(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "admin@example.com")
	env.registerUser(t, "second@example.com")

	resp, body := env.request(t, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	users := data["users"].([]any)
	require.Len(t, users, 2)
	var secondID int
	for _, raw := range users {
		u := raw.(map[string]any)
		if u["email"] == "second@example.com" {
			secondID = int(u["id"].(float64))
		}
	}
	require.NotZero(t, secondID)

	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/users/%d", secondID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "second@example.com", body["data"].(map[string]any)["user"].(map[string]any)["email"])

	resp, _ = env.request(t, http.MethodDelete, fmt.Sprintf("/users/%d", secondID), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/users/424242", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReferenceDetailEndpoints(t *testing.T) {
	env := newEnv(t)
	token := env.registerUser(t, "reference@example.com")

	resp, body := env.request(t, http.MethodPost, "/categories", token, map[string]any{"name": "Europeo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	catID := int(body["data"].(map[string]any)["category"].(map[string]any)["id"].(float64))

	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/categories/%d", catID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Europeo", body["data"].(map[string]any)["category"].(map[string]any)["name"])

	resp, body = env.request(t, http.MethodPost, "/tags", token, map[string]any{"name": "aventura"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tagID := int(body["data"].(map[string]any)["tag"].(map[string]any)["id"].(float64))

	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/tags/%d", tagID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "aventura", body["data"].(map[string]any)["tag"].(map[string]any)["name"])

	resp, body = env.request(t, http.MethodPut, fmt.Sprintf("/tags/%d", tagID), token, map[string]any{"name": "aventuras"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "aventuras", body["data"].(map[string]any)["tag"].(map[string]any)["name"])

	resp, _ = env.request(t, http.MethodGet, "/tags/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicProductBySlug(t *testing.T) {
	env := newEnv(t)
	asmID, _ := env.seedProducts(t)

	canonical := fmt.Sprintf("/products/p/%d-the-amazing-spider-man-1", asmID)
	resp, body := env.request(t, http.MethodGet, canonical, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	product := body["data"].(map[string]any)["product"].(map[string]any)
	assert.Equal(t, "the-amazing-spider-man-1", product["slug"])

	// A stale slug 301s to the canonical URL; the client follows it.
	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/products/p/%d-old-slug", asmID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, canonical, resp.Request.URL.Path)
	assert.Equal(t, "success", body["status"])

	resp, _ = env.request(t, http.MethodGet, "/products/p/sindatos", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/products/p/424242-fantasma", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	resp, err := env.client.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
