// Package downstream provides typed request helpers for the services the
// gateway orchestrates: carts, profiles, products and orders. Each call is a
// single HTTP request with the caller identity propagated as an opaque header;
// there are no retries and no caching.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/identity"
)

const (
	cartPath          = "/api/secure/carts/user"
	clearCartPath     = "/api/secure/carts"
	addressPath       = "/api/secure/profiles/addresses/%s"
	productPath       = "/api/public/products/%s"
	decreaseStockPath = "/api/secure/products/decrease"
	ordersPath        = "/api/secure/orders"
	orderStatusPath   = "/api/secure/orders/status"
)

// Config holds the base URLs of the downstream services.
type Config struct {
	ProductsBaseURL string
	CartsBaseURL    string
	ProfilesBaseURL string
	OrdersBaseURL   string
}

// Client issues requests against the downstream services. The zero value is not
// usable; construct with NewClient.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a downstream client with a pooled transport. No client-side
// timeout is set; calls are bounded only by the request context.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// GetCart retrieves the caller's cart snapshot.
func (c *Client) GetCart(ctx context.Context, id identity.Identity) (domain.CartSnapshot, error) {
	var cart domain.CartSnapshot
	err := c.do(ctx, http.MethodGet, c.cfg.CartsBaseURL+cartPath, &id, nil, &cart)
	return cart, err
}

// GetAddress retrieves one of the caller's addresses by id.
func (c *Client) GetAddress(ctx context.Context, id identity.Identity, addressID string) (domain.Address, error) {
	var address domain.Address
	err := c.do(ctx, http.MethodGet, c.cfg.ProfilesBaseURL+fmt.Sprintf(addressPath, addressID), &id, nil, &address)
	return address, err
}

// GetProduct retrieves a product quote. Product reads are public; no identity
// is attached.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.ProductQuote, error) {
	var quote domain.ProductQuote
	err := c.do(ctx, http.MethodGet, c.cfg.ProductsBaseURL+fmt.Sprintf(productPath, productID), nil, nil, &quote)
	return quote, err
}

// CreateOrder submits the order to the orders service and returns the created
// record.
func (c *Client) CreateOrder(ctx context.Context, id identity.Identity, details domain.OrderDetails) (domain.OrderRecord, error) {
	payload := struct {
		OrderDetails domain.OrderDetails `json:"orderDetails"`
	}{OrderDetails: details}

	var order domain.OrderRecord
	err := c.do(ctx, http.MethodPost, c.cfg.OrdersBaseURL+ordersPath, &id, payload, &order)
	return order, err
}

// ClearCart empties the caller's cart.
func (c *Client) ClearCart(ctx context.Context, id identity.Identity) error {
	return c.do(ctx, http.MethodDelete, c.cfg.CartsBaseURL+clearCartPath, &id, nil, nil)
}

// DecreaseStock decrements stock for a product. Stock mutation is a system
// operation and runs with the elevated identity, never the end user's.
func (c *Client) DecreaseStock(ctx context.Context, productID string, amount int) error {
	payload := struct {
		ProductID string `json:"productId"`
		Amount    int    `json:"amount"`
	}{ProductID: productID, Amount: amount}

	elevated := identity.Elevated()
	return c.do(ctx, http.MethodPut, c.cfg.ProductsBaseURL+decreaseStockPath, &elevated, payload, nil)
}

// UpdateOrderStatus forwards a status change to the orders service with the
// elevated identity.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	payload := struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}{OrderID: orderID, Status: status}

	elevated := identity.Elevated()
	return c.do(ctx, http.MethodPost, c.cfg.OrdersBaseURL+orderStatusPath, &elevated, payload, nil)
}

// do issues a single request and decodes the response into out when provided.
// Non-2xx responses map to StatusError with the downstream message when one was
// returned.
func (c *Client) do(ctx context.Context, method, url string, id *identity.Identity, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if id != nil {
		if err := id.SetHeader(req); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s: %w", url, err)
		}
	}

	return nil
}

// decodeErrorMessage extracts the downstream {message} body, best effort.
func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
