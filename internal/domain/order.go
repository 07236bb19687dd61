package domain

// CartEntry is a single line of a user's cart as reported by the carts service.
type CartEntry struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartSnapshot is the cart state read at orchestration start. It is not locked;
// concurrent cart mutations may make it stale.
type CartSnapshot struct {
	CartEntries []CartEntry `json:"cartEntries"`
}

// Address is the opaque address structure owned by the profiles service. The
// gateway never interprets its fields beyond stripping internal identifiers.
type Address map[string]any

// Strip removes the profile-internal identifiers before the address is embedded
// in an order payload, so the owning profile's storage key never leaks to other
// services.
func (a Address) Strip() {
	delete(a, "id")
	delete(a, "userId")
}

// ProductQuote is the authoritative product data fetched per cart line.
type ProductQuote struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	ImageIDs  []string `json:"imageIds"`
}

// OrderItem pairs a cart line with its product quote. Items keep the array
// position of the cart entries they were built from.
type OrderItem struct {
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
	Name      string   `json:"name"`
	ImageIDs  []string `json:"imageIds"`
}

// OrderDetails is the payload submitted to the orders service.
type OrderDetails struct {
	Address  Address     `json:"address"`
	Products []OrderItem `json:"products"`
}

// OrderRecord is the orders service's view of a created order. Its ID anchors
// payment-session idempotency and webhook correlation.
type OrderRecord struct {
	ID       string      `json:"id"`
	Address  Address     `json:"address"`
	Products []OrderItem `json:"products"`
}
