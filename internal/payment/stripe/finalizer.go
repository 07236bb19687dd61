package stripe

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ecomstack/api-gateway/internal/payment"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	checkoutCompletedEventType = "checkout.session.completed"

	// OrderStatusPaid is the status forwarded to the orders service once the
	// provider reports a completed checkout.
	OrderStatusPaid = "paid"
)

// OrderStatusUpdater forwards order status changes with system rights.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// EventStore deduplicates provider events. MarkProcessed reports whether this
// is the first delivery of the event.
type EventStore interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// Finalizer verifies inbound provider events and forwards completed checkouts
// to the orders service. The provider delivers at-least-once; everything past
// signature verification is acknowledged regardless of outcome so the provider
// does not retry.
type Finalizer struct {
	signingSecret string
	orders        OrderStatusUpdater
	events        EventStore
	logger        *slog.Logger
}

// NewFinalizer creates a webhook finalizer.
func NewFinalizer(signingSecret string, orders OrderStatusUpdater, events EventStore, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		signingSecret: signingSecret,
		orders:        orders,
		events:        events,
		logger:        logger,
	}
}

// HandleEvent verifies the signature over the raw body and processes the
// event. It returns payment.SignatureError on verification failure; any other
// outcome is nil.
func (f *Finalizer) HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) error {
	event, err := webhook.ConstructEventWithOptions(rawBody, signatureHeader, f.signingSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return &payment.SignatureError{Err: err}
	}

	if event.Type != checkoutCompletedEventType {
		f.logger.Info("webhook_event_ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		f.logger.Error("webhook_payload_decode_failed", "event_id", event.ID, "error", err)
		return nil
	}

	orderID := session.Metadata[orderIDMetadataKey]
	if orderID == "" {
		f.logger.Warn("webhook_missing_order_id", "event_id", event.ID, "session_id", session.ID)
		return nil
	}

	first, err := f.events.MarkProcessed(ctx, event.ID)
	if err != nil {
		// The order-side status update tolerates duplicates; proceed without
		// dedup rather than dropping the event.
		f.logger.Warn("webhook_dedup_unavailable", "event_id", event.ID, "error", err)
	} else if !first {
		f.logger.Info("webhook_already_processed", "event_id", event.ID, "order_id", orderID)
		return nil
	}

	if err := f.orders.UpdateOrderStatus(ctx, orderID, OrderStatusPaid); err != nil {
		f.logger.Error("order_status_update_failed", "event_id", event.ID, "order_id", orderID, "error", err)
	}

	return nil
}
