package services_test

import (
	"context"
	"fmt"
	"testing"

	"maplestore/internal/apperrors"
	"maplestore/internal/models"
	"maplestore/internal/services"
	"maplestore/pkg/docgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderReceipt(ctx context.Context, req docgen.ReceiptRequest) (*docgen.Document, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docgen.Document), args.Error(1)
}

func TestReceiptService_Receipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.placeOrder(t, customer, env.createProduct(t, "Dark Syrup", 1999, 10), 2)

	renderer := new(MockRenderer)
	receipts := services.NewReceiptService(env.orderService, renderer)

	doc := &docgen.Document{Content: []byte("%PDF"), ContentType: "application/pdf", Filename: "receipt.pdf"}
	renderer.On("RenderReceipt", mock.MatchedBy(func(req docgen.ReceiptRequest) bool {
		return req.OrderID == order.ID &&
			req.TotalCents == 4498 &&
			req.UserEmail == "buyer@example.com" &&
			len(req.Items) == 1 && req.Items[0].Name == "Dark Syrup" && req.Items[0].Quantity == 2
	})).Return(doc, nil).Once()

	got, err := receipts.Receipt(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	renderer.AssertExpectations(t)
}

func TestReceiptService_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, customer, env.createProduct(t, "Dark Syrup", 1999, 10), 1)

	renderer := new(MockRenderer)
	receipts := services.NewReceiptService(env.orderService, renderer)

	_, err := receipts.Receipt(context.Background(), models.Principal{UserID: "someone-else"}, order.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	renderer.AssertNotCalled(t, "RenderReceipt", mock.Anything)
}

func TestReceiptService_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, customer, env.createProduct(t, "Dark Syrup", 1999, 10), 1)

	renderer := new(MockRenderer)
	receipts := services.NewReceiptService(env.orderService, renderer)
	renderer.On("RenderReceipt", mock.Anything).Return(nil, fmt.Errorf("%w: status 502", docgen.ErrUnavailable)).Once()

	_, err := receipts.Receipt(context.Background(), customer, order.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeUpstreamUnavailable))
}
