package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/downstream"
	"github.com/ecomstack/api-gateway/internal/identity"
	"github.com/ecomstack/api-gateway/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockServiceGateway struct {
	mock.Mock
}

func (m *mockServiceGateway) GetCart(ctx context.Context, id identity.Identity) (domain.CartSnapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CartSnapshot), args.Error(1)
}

func (m *mockServiceGateway) GetAddress(ctx context.Context, id identity.Identity, addressID string) (domain.Address, error) {
	args := m.Called(ctx, id, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Address), args.Error(1)
}

func (m *mockServiceGateway) GetProduct(ctx context.Context, productID string) (domain.ProductQuote, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.ProductQuote), args.Error(1)
}

func (m *mockServiceGateway) CreateOrder(ctx context.Context, id identity.Identity, details domain.OrderDetails) (domain.OrderRecord, error) {
	args := m.Called(ctx, id, details)
	return args.Get(0).(domain.OrderRecord), args.Error(1)
}

func (m *mockServiceGateway) ClearCart(ctx context.Context, id identity.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockServiceGateway) DecreaseStock(ctx context.Context, productID string, amount int) error {
	args := m.Called(ctx, productID, amount)
	return args.Error(0)
}

type mockSessionCreator struct {
	mock.Mock
}

func (m *mockSessionCreator) CreateSession(ctx context.Context, orderID, email string, items []domain.OrderItem) (payment.Session, error) {
	args := m.Called(ctx, orderID, email, items)
	return args.Get(0).(payment.Session), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	testIdentity = identity.Identity{ID: "user-1", Email: "john.doe@example.com"}

	testCart = domain.CartSnapshot{CartEntries: []domain.CartEntry{
		{ProductID: "product-a", Quantity: 1},
		{ProductID: "product-b", Quantity: 2},
		{ProductID: "product-c", Quantity: 1},
	}}

	testOrder = domain.OrderRecord{ID: "order-1"}
)

// testAddress returns a fresh map per call; composing an order strips
// profile-internal keys from the address in place.
func testAddress() domain.Address {
	return domain.Address{"id": "address-1", "userId": "user-1", "street": "1 Main St"}
}

// newHappyGateway returns a gateway mock where every call succeeds. Individual
// tests override expectations before use.
func newHappyGateway() *mockServiceGateway {
	services := new(mockServiceGateway)
	services.On("GetCart", mock.Anything, testIdentity).Return(testCart, nil)
	services.On("GetAddress", mock.Anything, testIdentity, "address-1").Return(testAddress(), nil)
	services.On("GetProduct", mock.Anything, "product-a").
		Return(domain.ProductQuote{ProductID: "product-a", Name: "Product A", Price: 10}, nil)
	services.On("GetProduct", mock.Anything, "product-b").
		Return(domain.ProductQuote{ProductID: "product-b", Name: "Product B", Price: 20}, nil)
	services.On("GetProduct", mock.Anything, "product-c").
		Return(domain.ProductQuote{ProductID: "product-c", Name: "Product C", Price: 30}, nil)
	services.On("CreateOrder", mock.Anything, testIdentity, mock.Anything).Return(testOrder, nil)
	services.On("ClearCart", mock.Anything, testIdentity).Return(nil)
	services.On("DecreaseStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return services
}

func newOrchestrator(services *mockServiceGateway, sessions *mockSessionCreator) *Orchestrator {
	return NewOrchestrator(services, NewComposer(services), sessions, discardLogger())
}

func TestOrchestrator_Checkout_Success(t *testing.T) {
	services := newHappyGateway()
	sessions := new(mockSessionCreator)
	sessions.On("CreateSession", mock.Anything, "order-1", "john.doe@example.com", mock.Anything).
		Return(payment.Session{URL: "https://pay.example.com/s/1"}, nil)

	result, err := newOrchestrator(services, sessions).Checkout(context.Background(), testIdentity, "address-1")
	require.NoError(t, err)

	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, "https://pay.example.com/s/1", result.PaymentURL)
	assert.Empty(t, result.Degraded)

	// Order items must line up with the cart by index.
	services.AssertCalled(t, "CreateOrder", mock.Anything, testIdentity, mock.MatchedBy(func(d domain.OrderDetails) bool {
		return len(d.Products) == 3 &&
			d.Products[0].ProductID == "product-a" && d.Products[0].Price == 10 &&
			d.Products[1].ProductID == "product-b" && d.Products[1].Price == 20 &&
			d.Products[2].ProductID == "product-c" && d.Products[2].Price == 30
	}))

	// Stock decreases once per item with the item quantity.
	services.AssertCalled(t, "DecreaseStock", mock.Anything, "product-a", 1)
	services.AssertCalled(t, "DecreaseStock", mock.Anything, "product-b", 2)
	services.AssertCalled(t, "DecreaseStock", mock.Anything, "product-c", 1)
	services.AssertCalled(t, "ClearCart", mock.Anything, testIdentity)
}

func TestOrchestrator_Checkout_PrerequisiteFailures(t *testing.T) {
	testCases := map[string]struct {
		setupMock func(*mockServiceGateway)
	}{
		"should abort when the cart read fails": {
			setupMock: func(services *mockServiceGateway) {
				services.On("GetCart", mock.Anything, testIdentity).
					Return(domain.CartSnapshot{}, &downstream.StatusError{StatusCode: http.StatusInternalServerError})
				services.On("GetAddress", mock.Anything, testIdentity, "address-1").Return(testAddress(), nil).Maybe()
			},
		},
		"should abort when the address read fails": {
			setupMock: func(services *mockServiceGateway) {
				services.On("GetCart", mock.Anything, testIdentity).Return(testCart, nil).Maybe()
				services.On("GetAddress", mock.Anything, testIdentity, "address-1").
					Return(nil, &downstream.StatusError{StatusCode: http.StatusNotFound})
			},
		},
		"should abort when a product fetch fails": {
			setupMock: func(services *mockServiceGateway) {
				services.On("GetCart", mock.Anything, testIdentity).Return(testCart, nil)
				services.On("GetAddress", mock.Anything, testIdentity, "address-1").Return(testAddress(), nil)
				services.On("GetProduct", mock.Anything, mock.Anything).
					Return(domain.ProductQuote{}, errors.New("product service unavailable"))
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			services := new(mockServiceGateway)
			tc.setupMock(services)
			sessions := new(mockSessionCreator)

			_, err := newOrchestrator(services, sessions).Checkout(context.Background(), testIdentity, "address-1")

			var prereqErr *PrerequisiteError
			require.ErrorAs(t, err, &prereqErr)

			// Nothing may be committed on a prerequisite failure.
			services.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
			services.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
			services.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything)
			sessions.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrchestrator_Checkout_CommitFailure(t *testing.T) {
	testCases := map[string]struct {
		orderErr        error
		expectedMessage string
	}{
		"should not echo the downstream message for a server error": {
			orderErr:        &downstream.StatusError{StatusCode: http.StatusInternalServerError, Message: "db down"},
			expectedMessage: "Order could not be created.",
		},
		"should echo the downstream message for a not-found rejection": {
			orderErr:        &downstream.StatusError{StatusCode: http.StatusNotFound, Message: "Address no longer exists"},
			expectedMessage: "Order could not be created. Address no longer exists",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			services := new(mockServiceGateway)
			services.On("GetCart", mock.Anything, testIdentity).Return(testCart, nil)
			services.On("GetAddress", mock.Anything, testIdentity, "address-1").Return(testAddress(), nil)
			services.On("GetProduct", mock.Anything, mock.Anything).
				Return(domain.ProductQuote{ProductID: "product-a", Name: "Product A", Price: 10}, nil)
			services.On("CreateOrder", mock.Anything, testIdentity, mock.Anything).
				Return(domain.OrderRecord{}, tc.orderErr)
			sessions := new(mockSessionCreator)

			_, err := newOrchestrator(services, sessions).Checkout(context.Background(), testIdentity, "address-1")

			var commitErr *CommitError
			require.ErrorAs(t, err, &commitErr)
			assert.Equal(t, tc.expectedMessage, commitErr.Message)

			// The commit point was never passed; no cleanup, no session.
			services.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
			services.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything)
			sessions.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrchestrator_Checkout_DegradedCleanup(t *testing.T) {
	testCases := map[string]struct {
		setupMock      func(*mockServiceGateway)
		expectedLedger []string
	}{
		"should record a single stock entry when one decrease fails with a message": {
			setupMock: func(services *mockServiceGateway) {
				services.On("DecreaseStock", mock.Anything, mock.Anything, mock.Anything).Unset()
				services.On("DecreaseStock", mock.Anything, "product-b", 2).
					Return(&downstream.StatusError{StatusCode: http.StatusInternalServerError, Message: "stock service unavailable"})
				services.On("DecreaseStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			expectedLedger: []string{
				"Order created, but the products in stock could not be decreased.",
				"stock service unavailable",
			},
		},
		"should omit the detail message for a caller-input-shaped stock rejection": {
			setupMock: func(services *mockServiceGateway) {
				services.On("DecreaseStock", mock.Anything, mock.Anything, mock.Anything).Unset()
				services.On("DecreaseStock", mock.Anything, "product-b", 2).
					Return(&downstream.StatusError{StatusCode: http.StatusBadRequest, Message: "Not enough stock"})
				services.On("DecreaseStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			expectedLedger: []string{
				"Order created, but the products in stock could not be decreased.",
			},
		},
		"should record the cart entry with the downstream message when the cart clear fails": {
			setupMock: func(services *mockServiceGateway) {
				services.On("ClearCart", mock.Anything, testIdentity).Unset()
				services.On("ClearCart", mock.Anything, testIdentity).
					Return(&downstream.StatusError{StatusCode: http.StatusInternalServerError, Message: "cart service unavailable"})
			},
			expectedLedger: []string{
				"Order created, but the cart could not be cleared",
				"cart service unavailable",
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			services := newHappyGateway()
			tc.setupMock(services)
			sessions := new(mockSessionCreator)
			sessions.On("CreateSession", mock.Anything, "order-1", "john.doe@example.com", mock.Anything).
				Return(payment.Session{URL: "https://pay.example.com/s/1"}, nil)

			result, err := newOrchestrator(services, sessions).Checkout(context.Background(), testIdentity, "address-1")
			require.NoError(t, err)

			// Degraded cleanup never loses the payment URL.
			assert.Equal(t, "https://pay.example.com/s/1", result.PaymentURL)
			assert.Equal(t, tc.expectedLedger, result.Degraded)
		})
	}
}

func TestOrchestrator_Checkout_SessionFailure(t *testing.T) {
	services := newHappyGateway()
	sessions := new(mockSessionCreator)
	sessions.On("CreateSession", mock.Anything, "order-1", "john.doe@example.com", mock.Anything).
		Return(payment.Session{}, errors.New("provider unavailable"))

	_, err := newOrchestrator(services, sessions).Checkout(context.Background(), testIdentity, "address-1")

	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "order-1", sessionErr.OrderID)

	// The order and cleanup stand; only the response fails.
	services.AssertCalled(t, "CreateOrder", mock.Anything, testIdentity, mock.Anything)
	services.AssertCalled(t, "ClearCart", mock.Anything, testIdentity)
}
