package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecomstack/api-gateway/internal/api/rest/middleware"
	"github.com/ecomstack/api-gateway/internal/api/rest/response"
	"github.com/ecomstack/api-gateway/internal/checkout"
	"github.com/ecomstack/api-gateway/internal/identity"
)

const ledgerSeparator = "; "

// CheckoutOrchestrator runs the order checkout workflow.
type CheckoutOrchestrator interface {
	Checkout(ctx context.Context, id identity.Identity, addressID string) (*checkout.Result, error)
}

// CheckoutHandler handles HTTP requests for the checkout workflow.
type CheckoutHandler struct {
	orchestrator CheckoutOrchestrator
	logger       *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler instance
func NewCheckoutHandler(orchestrator CheckoutOrchestrator, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// CheckoutRequest represents the request payload for placing an order
type CheckoutRequest struct {
	AddressID string `json:"addressId"`
}

// CheckoutResponse represents the response for a created order. Message lists
// the partial-failure ledger entries on a degraded checkout.
type CheckoutResponse struct {
	Message string `json:"message,omitempty"`
	URL     string `json:"url"`
}

// Checkout handles POST /api/order - runs the checkout saga for the
// authenticated user
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error("identity_missing_in_context")
		response.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authorization token required")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := h.orchestrator.Checkout(r.Context(), id, req.AddressID)
	if err != nil {
		h.writeCheckoutError(w, err, id)
		return
	}

	if len(result.Degraded) > 0 {
		response.WriteJSON(w, http.StatusCreated, CheckoutResponse{
			Message: strings.Join(result.Degraded, ledgerSeparator),
			URL:     result.PaymentURL,
		})
		return
	}

	response.WriteJSON(w, http.StatusOK, CheckoutResponse{URL: result.PaymentURL})
}

// writeCheckoutError maps orchestrator failures to response categories. All of
// them are server errors; the category tells the caller which stage failed.
func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error, id identity.Identity) {
	var (
		prereqErr  *checkout.PrerequisiteError
		commitErr  *checkout.CommitError
		sessionErr *checkout.SessionError
	)

	switch {
	case errors.As(err, &prereqErr):
		h.logger.Error("checkout_prerequisite_failed", "user_id", id.ID, "step", prereqErr.Step, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "prerequisite_failed", "Internal server error")

	case errors.As(err, &commitErr):
		h.logger.Error("checkout_commit_failed", "user_id", id.ID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "order_rejected", commitErr.Message)

	case errors.As(err, &sessionErr):
		h.logger.Error("checkout_session_failed", "user_id", id.ID, "order_id", sessionErr.OrderID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "payment_session_failed",
			"Order created, but the payment session could not be created")

	default:
		h.logger.Error("checkout_failed", "user_id", id.ID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
