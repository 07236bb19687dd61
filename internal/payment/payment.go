// Package payment defines the provider-neutral types of the payment boundary.
// The Stripe-backed implementation lives in the stripe subpackage.
package payment

import "fmt"

// Session is a hosted payment page for a committed order.
type Session struct {
	URL string `json:"url"`
}

// SessionProduct is the client-facing view of one purchased line item,
// reconstructed from the provider's session representation.
type SessionProduct struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  int      `json:"quantity"`
	ImageIDs  []string `json:"imageIds,omitempty"`
}

// SessionView is the reconstructed order/product view for client-side
// confirmation pages.
type SessionView struct {
	OrderID  string           `json:"orderId"`
	Products []SessionProduct `json:"products"`
}

// SignatureError represents a webhook payload whose signature could not be
// verified against the shared secret. The event must be rejected with a client
// error and no state change.
type SignatureError struct {
	Err error
}

// Error implements the error interface
func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *SignatureError) Unwrap() error {
	return e.Err
}
