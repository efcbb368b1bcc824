package routes_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/inventory"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/shipping"
	"github.com/01moynul/storefront-golang/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []int64
}

func (r *recordingNotifier) OrderPlaced(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o.ID)
	return nil
}

type server struct {
	db       *sql.DB
	router   *gin.Engine
	tokens   *auth.Manager
	notifier *recordingNotifier
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := dbtest.Open(t)
	log := zerolog.Nop()
	store := cache.NewMemory(100, time.Hour, "test")
	tokens := auth.NewManager("test-secret", time.Hour)
	notifier := &recordingNotifier{}
	userStore := &users.Store{DB: db}

	h := &handlers.Handlers{
		DB:     db,
		Logger: log,

		Users:  userStore,
		Tokens: tokens,
		Zones: &shipping.CachedZones{
			ZoneStore: &shipping.ZoneStore{DB: db},
			Cache:     store,
			Logger:    log,
		},
		Shipping:  shipping.Pricing{},
		Addresses: &addresses.Store{DB: db},
		Cart:      &cart.Store{DB: db},
		Checkout: &checkout.Workflow{
			DB:       db,
			Stock:    inventory.Ledger{},
			Shipping: shipping.Pricing{},
			Notifier: notifier,
			Logger:   log,
		},
		Orders:     &orders.Store{DB: db},
		Products:   &catalog.Products{DB: db, Stock: inventory.Ledger{}},
		Taxonomy:   &catalog.Taxonomy{DB: db},
		Reviews:    &catalog.Reviews{DB: db},
		Newsletter: &catalog.Newsletter{DB: db},
	}

	router := routes.SetupRouter(h, routes.Options{
		Logger:         log,
		CORSOrigin:     "*",
		RateLimit:      1000,
		RateBurst:      1000,
		Cache:          store,
		IdempotencyTTL: time.Hour,
		Roles:          userStore,
	})
	return &server{db: db, router: router, tokens: tokens, notifier: notifier}
}

func (s *server) token(t *testing.T, id int64, role string) string {
	t.Helper()
	tok, err := s.tokens.GenerateToken(&models.User{ID: id, Role: role, Email: fmt.Sprintf("user%d@example.com", id)})
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, token string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// shopper seeds a customer with one address in a 5.00 zone and a cart
// holding two units of a 20.00 product.
func (s *server) shopper(t *testing.T, stock int) (token string, addressID, productID int64) {
	t.Helper()
	userID := dbtest.CreateUser(t, s.db, "shopper@example.com", models.RoleCustomer)
	zoneID := dbtest.CreateZone(t, s.db, "Beirut", 5)
	addressID = dbtest.CreateAddress(t, s.db, userID, &zoneID)
	productID = dbtest.CreateProduct(t, s.db, "Mug", 20, 0, stock)
	dbtest.AddCartLine(t, s.db, userID, productID, nil, 2)
	return s.token(t, userID, models.RoleCustomer), addressID, productID
}

func TestPing(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", body["message"])
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodPost, "/register", "", gin.H{
		"first_name": "Rana", "last_name": "Haddad", "email": "Rana@Example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	status, body = s.do(t, http.MethodPost, "/register", "", gin.H{
		"first_name": "Rana", "last_name": "Haddad", "email": "rana@example.com", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "rana@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["access_token"].(string)

	status, body = s.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, _ = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "rana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodPost, "/register", "", gin.H{"email": "not-an-email", "password": "short"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])

	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestCheckoutPlacesOrder(t *testing.T) {
	s := newServer(t)
	token, addressID, productID := s.shopper(t, 10)

	status, body := s.do(t, http.MethodPost, "/checkout", token, gin.H{"address_id": addressID, "payment_code": "cash"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order placed successfully.", body["message"])
	assert.Equal(t, "cash", body["payment_type"])

	order, ok := body["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 40.0, order["subtotal"])
	assert.Equal(t, 5.0, order["shipping"])
	assert.Equal(t, 45.0, order["total"])
	assert.Equal(t, "pending", order["order_status"])

	assert.Equal(t, 8, dbtest.ProductQuantity(t, s.db, productID))
	assert.Equal(t, 0, dbtest.CountRows(t, s.db, "cart_items"))
	assert.Len(t, s.notifier.orders, 1)

	status, body = s.do(t, http.MethodGet, "/orders/my", token, nil)
	require.Equal(t, http.StatusOK, status, body)
}

func TestCheckoutFailures(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		s := newServer(t)
		userID := dbtest.CreateUser(t, s.db, "empty@example.com", models.RoleCustomer)
		addressID := dbtest.CreateAddress(t, s.db, userID, nil)

		status, body := s.do(t, http.MethodPost, "/checkout", s.token(t, userID, models.RoleCustomer),
			gin.H{"address_id": addressID, "payment_code": "cash"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, 0, dbtest.CountRows(t, s.db, "orders"))
	})

	t.Run("unsupported payment", func(t *testing.T) {
		s := newServer(t)
		token, addressID, _ := s.shopper(t, 10)

		status, body := s.do(t, http.MethodPost, "/checkout", token, gin.H{"address_id": addressID, "payment_code": "card"})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body["errors"], "payment_code")
		assert.Equal(t, 0, dbtest.CountRows(t, s.db, "orders"))
	})

	t.Run("missing address", func(t *testing.T) {
		s := newServer(t)
		token, _, _ := s.shopper(t, 10)

		status, body := s.do(t, http.MethodPost, "/checkout", token, gin.H{"payment_code": "cash"})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body["errors"], "address_id")
	})

	t.Run("insufficient stock", func(t *testing.T) {
		s := newServer(t)
		token, addressID, productID := s.shopper(t, 1)

		status, body := s.do(t, http.MethodPost, "/checkout", token, gin.H{"address_id": addressID, "payment_code": "cash"})
		assert.Equal(t, http.StatusConflict, status, body)
		assert.Equal(t, 1, dbtest.ProductQuantity(t, s.db, productID))
		assert.Equal(t, 1, dbtest.CountRows(t, s.db, "cart_items"))
		assert.Empty(t, s.notifier.orders)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		s := newServer(t)
		status, _ := s.do(t, http.MethodPost, "/checkout", "", gin.H{"address_id": 1, "payment_code": "cash"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	s := newServer(t)
	token, addressID, _ := s.shopper(t, 10)
	in := gin.H{"address_id": addressID, "payment_code": "cash"}

	status, _ := s.do(t, http.MethodPost, "/checkout", token, in, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(t, http.MethodPost, "/checkout", token, in, "Idempotency-Key", "order-1")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 1, dbtest.CountRows(t, s.db, "orders"))
}

func TestProductCostVisibleToAdminsOnly(t *testing.T) {
	s := newServer(t)
	productID := dbtest.CreateProduct(t, s.db, "Lamp", 40, 0, 3)
	adminID := dbtest.CreateUser(t, s.db, "admin@example.com", models.RoleAdmin)
	path := fmt.Sprintf("/products/%d", productID)

	status, body := s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	product, _ := body["product"].(map[string]any)
	assert.NotContains(t, product, "buying_price")

	status, body = s.do(t, http.MethodGet, path, s.token(t, adminID, models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, status)
	product, _ = body["product"].(map[string]any)
	assert.Equal(t, 20.0, product["buying_price"])
}

func TestAdminRoutesCheckStoredRole(t *testing.T) {
	s := newServer(t)
	customerID := dbtest.CreateUser(t, s.db, "customer@example.com", models.RoleCustomer)

	status, _ := s.do(t, http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/orders", s.token(t, customerID, models.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, status)

	// A token minted with a stale admin claim does not outrank the stored role.
	status, _ = s.do(t, http.MethodGet, "/orders", s.token(t, customerID, models.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, status)

	adminID := dbtest.CreateUser(t, s.db, "admin@example.com", models.RoleAdmin)
	status, body := s.do(t, http.MethodGet, "/dashboard-stats", s.token(t, adminID, models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "stats")
}

func TestUnknownProductIsNotFound(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodGet, "/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestAddToCartNeedsVariantForVariantProduct(t *testing.T) {
	s := newServer(t)
	userID := dbtest.CreateUser(t, s.db, "shopper@example.com", models.RoleCustomer)
	shirt := dbtest.CreateProduct(t, s.db, "Shirt", 20, 0, 7)
	red := dbtest.CreateVariant(t, s.db, shirt, "red", nil, 3)
	token := s.token(t, userID, models.RoleCustomer)

	status, body := s.do(t, http.MethodPost, "/cart", token, gin.H{"product_id": shirt, "quantity": 2})
	require.Equal(t, http.StatusUnprocessableEntity, status, body)
	assert.Contains(t, body["errors"], "variant_id")

	status, body = s.do(t, http.MethodPost, "/cart", token, gin.H{"product_id": shirt, "variant_id": red, "quantity": 2})
	require.Equal(t, http.StatusCreated, status, body)
	status, _ = s.do(t, http.MethodPost, "/cart", token, gin.H{"product_id": shirt, "variant_id": red, "quantity": 3})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, dbtest.CountRows(t, s.db, "cart_items"))
}
