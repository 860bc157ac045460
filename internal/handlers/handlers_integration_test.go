package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"maplestore/internal/app"
	"maplestore/internal/config"
	"maplestore/internal/models"
	"maplestore/internal/shipping"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp builds the whole storefront on a private in-memory sqlite database
// with a staff account and the demo catalog.
func setupApp(t *testing.T, receiptURL string) *fiber.App {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	table := shipping.DefaultRateTable()
	table.Rules = append(table.Rules, shipping.Rule{Zone: "DOMESTIC", Country: "US", CostCents: 500})

	store, err := app.New(&config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file:" + name + "?mode=memory&cache=shared",
		JWTSecret:      "test_jwt_secret",
		ReceiptURL:     receiptURL,
		SeedDemo:       true,
		AdminUsername:  "staff",
		AdminPassword:  "staffpass",
		AdminEmail:     "staff@example.com",
		Shipping:       table,
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store.Fiber
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func registerCustomer(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return login(t, app, username, "password123")
}

func firstProduct(t *testing.T, app *fiber.App) models.Product {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	require.NotEmpty(t, products)
	return products[0]
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"payment_reference": "EMT-20240101",
		"payer_email":       "buyer@example.com",
		"shipping_address": map[string]string{
			"line1":       "100 Main St",
			"city":        "Burlington",
			"region":      "VT",
			"country":     "US",
			"postal_code": "05401",
		},
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t, "")

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	user := registerResp["user"].(map[string]interface{})
	assert.NotContains(t, user, "password")
	assert.Equal(t, false, user["is_staff"])

	// Duplicate registration
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Invalid registration
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var validation map[string]interface{}
	decode(t, resp, &validation)
	assert.Equal(t, "VALIDATION_ERROR", validation["code"])

	assert.NotEmpty(t, login(t, app, "testuser", "password123"))

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCatalogAndShippingArePublic(t *testing.T) {
	app := setupApp(t, "")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	assert.Len(t, products, 2)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+products[0].ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/shipping/estimate?country=CA&region=ON&postal=P0R%201A0", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var estimate shipping.Estimate
	decode(t, resp, &estimate)
	assert.Equal(t, shipping.Estimate{CostCents: 499, Zone: "LOCAL_RADIUS"}, estimate)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/shipping/estimate?country=CA", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesWithoutAuth(t *testing.T) {
	app := setupApp(t, "")

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/cart/items"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/admin/orders"},
		{http.MethodPost, "/api/v1/admin/products"},
	} {
		resp := doJSON(t, app, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route.path)
	}
}

func TestCartAndCheckoutFlow(t *testing.T) {
	app := setupApp(t, "")
	token := registerCustomer(t, app, "buyer")
	product := firstProduct(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart models.Cart
	decode(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].Quantity)
	assert.Equal(t, product.PriceCents*2, cart.SubtotalCents)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items/"+cart.Items[0].ID, token, map[string]interface{}{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, product.PriceCents*2, order.SubtotalCents)
	assert.Equal(t, int64(500), order.ShippingCents)
	assert.Equal(t, order.SubtotalCents+500, order.TotalCents)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutBody())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var emptyCart map[string]interface{}
	decode(t, resp, &emptyCart)
	assert.Equal(t, "EMPTY_CART", emptyCart["code"])

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decode(t, resp, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	// Other customers cannot see the order.
	otherToken := registerCustomer(t, app, "someone")
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminOrderReconciliation(t *testing.T) {
	app := setupApp(t, "")
	token := registerCustomer(t, app, "buyer")
	staffToken := login(t, app, "staff", "staffpass")
	product := firstProduct(t, app)

	doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{"product_id": product.ID, "quantity": 1})
	resp := doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	// Customers are not staff.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/orders/"+order.ID+"/mark-paid", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", staffToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Order
	decode(t, resp, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "EMT-20240101", all[0].PaymentReference)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/orders/"+order.ID+"/mark-paid", staffToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", staffToken, map[string]string{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shipped models.Order
	decode(t, resp, &shipped)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/orders/"+order.ID+"/mark-paid", staffToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var invalid map[string]interface{}
	decode(t, resp, &invalid)
	assert.Equal(t, "INVALID_TRANSITION", invalid["code"])

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", staffToken, map[string]string{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminProductEndpoints(t *testing.T) {
	app := setupApp(t, "")
	staffToken := login(t, app, "staff", "staffpass")

	newProduct := map[string]interface{}{
		"name":        "Maple Butter",
		"description": "Whipped maple butter",
		"price_cents": 1299,
		"inventory":   30,
		"active":      true,
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/admin/products", staffToken, newProduct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Maple Butter", created.Name)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/products", staffToken, map[string]interface{}{"price_cents": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	newProduct["name"] = "Maple Butter 250g"
	newProduct["price_cents"] = 1399
	resp = doJSON(t, app, http.MethodPut, "/api/v1/admin/products/"+created.ID, staffToken, newProduct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decode(t, resp, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Maple Butter 250g", updated.Name)
	assert.Equal(t, int64(1399), updated.PriceCents)
	assert.Equal(t, created.Version+1, updated.Version)

	newProduct["version"] = created.Version
	resp = doJSON(t, app, http.MethodPut, "/api/v1/admin/products/"+created.ID, staffToken, newProduct)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/admin/products/"+created.ID, staffToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleteResp map[string]string
	decode(t, resp, &deleteResp)
	assert.Contains(t, deleteResp["message"], "deactivated successfully")

	// Gone from the public catalog, still visible to staff.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/admin/products", staffToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Product
	decode(t, resp, &all)
	assert.Len(t, all, 3)
}

func TestOrderReceiptDownload(t *testing.T) {
	receiptServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 receipt"))
	}))
	defer receiptServer.Close()

	app := setupApp(t, receiptServer.URL)
	token := registerCustomer(t, app, "buyer")
	product := firstProduct(t, app)

	doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{"product_id": product.ID, "quantity": 1})
	resp := doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/receipt", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), order.ID)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 receipt", string(body))

	otherToken := registerCustomer(t, app, "someone")
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/receipt", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
