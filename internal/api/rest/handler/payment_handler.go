package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ecomstack/api-gateway/internal/api/rest/response"
	"github.com/ecomstack/api-gateway/internal/payment"
	"github.com/gorilla/mux"
)

// SignatureHeader is the payment provider's event signature header.
const SignatureHeader = "Stripe-Signature"

// WebhookFinalizer verifies and processes inbound payment-provider events.
type WebhookFinalizer interface {
	HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) error
}

// SessionRetriever reconstructs order/product view data from a payment session.
type SessionRetriever interface {
	RetrieveSession(ctx context.Context, sessionID string) (payment.SessionView, error)
}

// PaymentHandler handles the payment provider's webhook and session lookups.
type PaymentHandler struct {
	finalizer WebhookFinalizer
	sessions  SessionRetriever
	logger    *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(finalizer WebhookFinalizer, sessions SessionRetriever, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		finalizer: finalizer,
		sessions:  sessions,
		logger:    logger,
	}
}

// Webhook handles POST /api/payment/webhook. Only a signature failure is a
// client error; every verified event is acknowledged so the provider does not
// retry deliveries this system chose to ignore.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "Could not read request body")
		return
	}

	if err := h.finalizer.HandleEvent(r.Context(), rawBody, r.Header.Get(SignatureHeader)); err != nil {
		var sigErr *payment.SignatureError
		if errors.As(err, &sigErr) {
			h.logger.Warn("webhook_signature_rejected", "error", err)
			response.WriteError(w, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
			return
		}

		h.logger.Error("webhook_handling_failed", "error", err)
	}

	w.WriteHeader(http.StatusOK)
}

// GetSession handles GET /api/payment/session/{id} - returns the order and
// product view for a payment session
func (h *PaymentHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := h.sessions.RetrieveSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("session_lookup_failed", "session_id", sessionID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "session_lookup_failed",
			"Payment session could not be retrieved")
		return
	}

	response.WriteJSON(w, http.StatusOK, view)
}
