package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"maplestore/internal/metrics"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
	"maplestore/internal/services"
	"maplestore/internal/shipping"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher remembers every event it was asked to publish.
type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	changed []string
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, order.ID)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, order *models.Order, from models.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, fmt.Sprintf("%s:%s->%s", order.ID, from, order.Status))
	return nil
}

// testEnv wires the services against a private in-memory sqlite database.
type testEnv struct {
	db        *gorm.DB
	products  *repositories.GORMProductRepository
	carts     *repositories.GORMCartRepository
	orders    *repositories.GORMOrderRepository
	publisher *recordingPublisher
	estimator *shipping.Estimator
	metrics   *metrics.Metrics

	cartService     *services.CartService
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
}

// testRates prices US destinations at a flat domestic rate.
func testRates() shipping.RateTable {
	table := shipping.DefaultRateTable()
	table.Rules = append(table.Rules, shipping.Rule{Zone: "DOMESTIC", Country: "US", CostCents: 500})
	return table
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repositories.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:        db,
		products:  repositories.NewGORMProductRepository(db),
		carts:     repositories.NewGORMCartRepository(db),
		orders:    repositories.NewGORMOrderRepository(db),
		publisher: &recordingPublisher{},
		estimator: shipping.NewEstimator(testRates()),
		metrics:   metrics.New("test"),
	}
	tx := repositories.NewTxManager(db)
	env.cartService = services.NewCartService(tx, env.carts, env.products, env.metrics)
	env.checkoutService = services.NewCheckoutService(tx, env.carts, env.products, env.orders, env.estimator, env.publisher, env.metrics)
	env.orderService = services.NewOrderService(env.orders, env.publisher, env.metrics)
	return env
}

func (e *testEnv) createProduct(t *testing.T, name string, priceCents, inventory int64) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, PriceCents: priceCents, Inventory: inventory, Active: true}
	require.NoError(t, e.products.Create(context.Background(), product))
	return product
}

func (e *testEnv) inventoryOf(t *testing.T, id string) int64 {
	t.Helper()
	product, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Inventory
}

func domesticCheckout() services.CheckoutRequest {
	return services.CheckoutRequest{
		PaymentReference: "EMT-REF-1",
		PayerEmail:       "buyer@example.com",
		ShippingAddress: models.ShippingAddress{
			Line1:      "100 Main St",
			City:       "Burlington",
			Region:     "VT",
			Country:    "US",
			PostalCode: "05401",
		},
	}
}

func shippingDestination(req services.CheckoutRequest) shipping.Destination {
	return shipping.Destination{
		Country:    req.ShippingAddress.Country,
		Region:     req.ShippingAddress.Region,
		PostalCode: req.ShippingAddress.PostalCode,
	}
}

// placeOrder puts qty units of product in the customer's cart and checks out.
func (e *testEnv) placeOrder(t *testing.T, p models.Principal, product *models.Product, qty int64) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := e.cartService.AddItem(ctx, p, product.ID, qty)
	require.NoError(t, err)
	order, err := e.checkoutService.Checkout(ctx, p, domesticCheckout())
	require.NoError(t, err)
	return order
}
