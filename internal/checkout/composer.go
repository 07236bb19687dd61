package checkout

import (
	"context"
	"fmt"

	"github.com/ecomstack/api-gateway/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ProductReader fetches authoritative product data. Product lookups are pure
// reads with no side effects.
type ProductReader interface {
	GetProduct(ctx context.Context, productID string) (domain.ProductQuote, error)
}

// Composer builds the priced, named order line items from a cart snapshot.
type Composer struct {
	products ProductReader
}

// NewComposer creates a Composer backed by the given product reader.
func NewComposer(products ProductReader) *Composer {
	return &Composer{products: products}
}

// Compose fetches one product quote per cart line concurrently and pairs each
// quote with its cart entry by original index, so item order matches the cart
// regardless of which fetch resolves first. Any failed fetch fails the whole
// composition; no partial order is possible without authoritative pricing.
// The address is stripped of profile-internal identifiers before embedding.
func (c *Composer) Compose(
	ctx context.Context,
	cart domain.CartSnapshot,
	address domain.Address,
) (domain.OrderDetails, float64, error) {
	quotes := make([]domain.ProductQuote, len(cart.CartEntries))

	g, ctx := errgroup.WithContext(ctx)
	for idx, entry := range cart.CartEntries {
		idx, entry := idx, entry
		g.Go(func() error {
			quote, err := c.products.GetProduct(ctx, entry.ProductID)
			if err != nil {
				return fmt.Errorf("get product %s: %w", entry.ProductID, err)
			}

			// Each goroutine owns exactly one slot.
			quotes[idx] = quote
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.OrderDetails{}, 0, err
	}

	var total float64
	items := make([]domain.OrderItem, len(cart.CartEntries))
	for i, entry := range cart.CartEntries {
		items[i] = domain.OrderItem{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			Price:     quotes[i].Price,
			Name:      quotes[i].Name,
			ImageIDs:  quotes[i].ImageIDs,
		}
		total += quotes[i].Price * float64(entry.Quantity)
	}

	address.Strip()

	return domain.OrderDetails{
		Address:  address,
		Products: items,
	}, total, nil
}
