// Package checkout implements the order checkout saga: a multi-step workflow
// across independently failing services with no shared transaction. Reads and
// order submission happen before the commit point; everything after it is
// best-effort and never rolls the order back.
package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/downstream"
	"github.com/ecomstack/api-gateway/internal/identity"
	"github.com/ecomstack/api-gateway/internal/payment"
	"golang.org/x/sync/errgroup"
)

const (
	cartClearDegradedMsg     = "Order created, but the cart could not be cleared"
	stockDecreaseDegradedMsg = "Order created, but the products in stock could not be decreased."

	commitFailedMsg = "Order could not be created."
)

// ServiceGateway is the slice of downstream capabilities the saga depends on.
type ServiceGateway interface {
	GetCart(ctx context.Context, id identity.Identity) (domain.CartSnapshot, error)
	GetAddress(ctx context.Context, id identity.Identity, addressID string) (domain.Address, error)
	CreateOrder(ctx context.Context, id identity.Identity, details domain.OrderDetails) (domain.OrderRecord, error)
	ClearCart(ctx context.Context, id identity.Identity) error
	DecreaseStock(ctx context.Context, productID string, amount int) error
}

// SessionCreator creates a hosted payment session for a committed order.
type SessionCreator interface {
	CreateSession(ctx context.Context, orderID, email string, items []domain.OrderItem) (payment.Session, error)
}

// Result is the outcome of a successful (possibly degraded) checkout. Degraded
// holds the partial-failure ledger; an empty ledger means the checkout was
// fully clean.
type Result struct {
	OrderID    string
	PaymentURL string
	Degraded   []string
}

// Orchestrator sequences the checkout workflow.
type Orchestrator struct {
	services ServiceGateway
	composer *Composer
	sessions SessionCreator
	logger   *slog.Logger
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(
	services ServiceGateway,
	composer *Composer,
	sessions SessionCreator,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		services: services,
		composer: composer,
		sessions: sessions,
		logger:   logger,
	}
}

// Checkout runs the saga for an authenticated user and a chosen address.
//
// Failures before order creation return PrerequisiteError or CommitError and
// leave no state behind. Once the order exists, cleanup failures are recorded
// in the result's ledger instead of aborting; only a failed payment-session
// creation is terminal to the response, and even then the order stands.
func (o *Orchestrator) Checkout(ctx context.Context, id identity.Identity, addressID string) (*Result, error) {
	cart, address, err := o.fetchPrerequisites(ctx, id, addressID)
	if err != nil {
		return nil, err
	}

	details, total, err := o.composer.Compose(ctx, cart, address)
	if err != nil {
		return nil, &PrerequisiteError{Step: "pricing", Err: err}
	}

	// Commit point. From here on the workflow is irreversible.
	order, err := o.services.CreateOrder(ctx, id, details)
	if err != nil {
		return nil, &CommitError{Message: commitMessage(err), Err: err}
	}

	o.logger.Info("order_submitted",
		"order_id", order.ID,
		"user_id", id.ID,
		"items", len(details.Products),
		"total", total,
	)

	nok := o.cleanUp(ctx, id, details.Products)
	for _, entry := range nok {
		o.logger.Warn("checkout_degraded", "order_id", order.ID, "detail", entry)
	}

	session, err := o.sessions.CreateSession(ctx, order.ID, id.Email, details.Products)
	if err != nil {
		return nil, &SessionError{OrderID: order.ID, Err: err}
	}

	return &Result{
		OrderID:    order.ID,
		PaymentURL: session.URL,
		Degraded:   nok,
	}, nil
}

// fetchPrerequisites reads the cart and the chosen address concurrently. Both
// are mandatory; either failure aborts the checkout before anything is
// committed.
func (o *Orchestrator) fetchPrerequisites(
	ctx context.Context,
	id identity.Identity,
	addressID string,
) (domain.CartSnapshot, domain.Address, error) {
	var (
		cart    domain.CartSnapshot
		address domain.Address
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		cart, err = o.services.GetCart(ctx, id)
		return err
	})

	g.Go(func() error {
		var err error
		address, err = o.services.GetAddress(ctx, id, addressID)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.CartSnapshot{}, nil, &PrerequisiteError{Step: "cart_and_address", Err: err}
	}

	return cart, address, nil
}

// cleanUp runs the post-commit side effects concurrently: clearing the cart
// with the user's identity and decreasing stock per item with the elevated
// identity. All failures are recorded in the returned ledger, never raised;
// the order already exists and must not look like it failed.
func (o *Orchestrator) cleanUp(ctx context.Context, id identity.Identity, items []domain.OrderItem) []string {
	var (
		cartErr   error
		stockErrs = make([]error, len(items))
		wg        sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		cartErr = o.services.ClearCart(ctx, id)
	}()

	for idx, item := range items {
		idx, item := idx, item
		wg.Add(1)
		go func() {
			defer wg.Done()
			stockErrs[idx] = o.services.DecreaseStock(ctx, item.ProductID, item.Quantity)
		}()
	}

	wg.Wait()

	var nok []string

	if cartErr != nil {
		nok = append(nok, cartClearDegradedMsg)
		if msg := downstream.Message(cartErr); msg != "" {
			nok = append(nok, msg)
		}
	}

	if anyFailed(stockErrs) {
		nok = append(nok, stockDecreaseDegradedMsg)
		for _, err := range stockErrs {
			if err == nil {
				continue
			}
			// Rejections shaped like caller input errors signal a condition
			// the caller already knows about; record the category only.
			if downstream.StatusCode(err) == http.StatusBadRequest {
				continue
			}
			if msg := downstream.Message(err); msg != "" {
				nok = append(nok, msg)
			}
		}
	}

	return nok
}

func anyFailed(errs []error) bool {
	for _, err := range errs {
		if err != nil {
			return true
		}
	}
	return false
}

// commitMessage builds the user-facing message for a rejected order
// submission. The downstream detail is echoed only for not-found rejections.
func commitMessage(err error) string {
	if downstream.StatusCode(err) != http.StatusNotFound {
		return commitFailedMsg
	}
	if msg := downstream.Message(err); msg != "" {
		return commitFailedMsg + " " + msg
	}
	return commitFailedMsg
}
