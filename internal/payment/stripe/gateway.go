// Package stripe wraps the Stripe-hosted checkout flow behind the gateway's
// payment boundary: session creation keyed by order identity and session
// lookup for confirmation pages.
package stripe

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/payment"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	orderIDMetadataKey   = "orderId"
	productIDMetadataKey = "productId"
	imageIDsMetadataKey  = "imageIds"

	imageIDsSeparator = ","
)

// Config holds the Stripe account and checkout page settings.
type Config struct {
	APIKey     string
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Gateway creates and retrieves Stripe Checkout Sessions.
type Gateway struct {
	api *client.API
	cfg Config
}

// NewGateway creates a Gateway with its own Stripe API client.
func NewGateway(cfg Config) *Gateway {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &Gateway{api: api, cfg: cfg}
}

// IdempotencyKey derives the session idempotency key from the order id alone,
// so repeating checkout for the same order never creates a second billable
// session.
func IdempotencyKey(orderID string) string {
	return "checkout-session-" + orderID
}

// CreateSession requests a hosted payment page for the given order. Unit
// prices are scaled to the provider's minor-unit convention and each line item
// carries the product id and image identifiers in its metadata for later
// reconciliation.
func (g *Gateway) CreateSession(
	ctx context.Context,
	orderID, email string,
	items []domain.OrderItem,
) (payment.Session, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:          stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		CustomerEmail: stripeapi.String(email),
		SuccessURL:    stripeapi.String(g.cfg.SuccessURL),
		CancelURL:     stripeapi.String(g.cfg.CancelURL),
		LineItems:     buildLineItems(g.cfg.Currency, items),
	}
	params.Context = ctx
	params.IdempotencyKey = stripeapi.String(IdempotencyKey(orderID))
	params.AddMetadata(orderIDMetadataKey, orderID)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return payment.Session{}, fmt.Errorf("create checkout session for order %s: %w", orderID, err)
	}

	return payment.Session{URL: session.URL}, nil
}

// RetrieveSession reconstructs the order/product view from a checkout session
// and its line items.
func (g *Gateway) RetrieveSession(ctx context.Context, sessionID string) (payment.SessionView, error) {
	sessionParams := &stripeapi.CheckoutSessionParams{}
	sessionParams.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, sessionParams)
	if err != nil {
		return payment.SessionView{}, fmt.Errorf("get checkout session %s: %w", sessionID, err)
	}

	listParams := &stripeapi.CheckoutSessionListLineItemsParams{
		Session: stripeapi.String(sessionID),
	}
	listParams.Context = ctx
	listParams.AddExpand("data.price.product")

	var products []payment.SessionProduct
	iter := g.api.CheckoutSessions.ListLineItems(listParams)
	for iter.Next() {
		products = append(products, toSessionProduct(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return payment.SessionView{}, fmt.Errorf("list line items for session %s: %w", sessionID, err)
	}

	return payment.SessionView{
		OrderID:  session.Metadata[orderIDMetadataKey],
		Products: products,
	}, nil
}

// buildLineItems converts order items to Stripe line items, preserving order.
func buildLineItems(currency string, items []domain.OrderItem) []*stripeapi.CheckoutSessionLineItemParams {
	lineItems := make([]*stripeapi.CheckoutSessionLineItemParams, len(items))
	for i, item := range items {
		lineItems[i] = &stripeapi.CheckoutSessionLineItemParams{
			Quantity: stripeapi.Int64(int64(item.Quantity)),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripeapi.String(currency),
				UnitAmount: stripeapi.Int64(minorUnits(item.Price)),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(item.Name),
					Metadata: map[string]string{
						productIDMetadataKey: item.ProductID,
						imageIDsMetadataKey:  strings.Join(item.ImageIDs, imageIDsSeparator),
					},
				},
			},
		}
	}
	return lineItems
}

// toSessionProduct maps a provider line item back to the view representation.
func toSessionProduct(lineItem *stripeapi.LineItem) payment.SessionProduct {
	product := payment.SessionProduct{
		Name:     lineItem.Description,
		Quantity: int(lineItem.Quantity),
	}

	if lineItem.Price == nil {
		return product
	}

	product.Price = float64(lineItem.Price.UnitAmount) / 100
	if lineItem.Price.Product != nil {
		product.ProductID = lineItem.Price.Product.Metadata[productIDMetadataKey]
		if name := lineItem.Price.Product.Name; name != "" {
			product.Name = name
		}
		if ids := lineItem.Price.Product.Metadata[imageIDsMetadataKey]; ids != "" {
			product.ImageIDs = strings.Split(ids, imageIDsSeparator)
		}
	}

	return product
}

// minorUnits converts a major-unit price to the provider's minor units.
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
