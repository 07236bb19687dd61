package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/ecomstack/api-gateway/internal/api/rest/response"
	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/identity"
	"github.com/ecomstack/api-gateway/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	BcryptCost        = 10

	// DaysUntilExpires is advertised to clients alongside the issued token.
	DaysUntilExpires = 7
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthHandler handles registration, login and token validation.
type AuthHandler struct {
	userRepo UserRepository
	secret   []byte
	logger   *slog.Logger
}

// NewAuthHandler creates a new authentication handler signing tokens with the
// given shared secret.
func NewAuthHandler(userRepo UserRepository, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		secret:   secret,
		logger:   logger,
	}
}

// CredentialsRequest represents the register and login request payload
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response payload
type LoginResponse struct {
	Token             string `json:"token"`
	DaysUntilExpires  int    `json:"daysUntilExpires"`
	HasElevatedRights bool   `json:"hasElevatedRights"`
}

// ValidateRequest represents the token validation request payload
type ValidateRequest struct {
	Token string `json:"token"`
}

// ValidateResponse represents the token validation response payload
type ValidateResponse struct {
	HasElevatedRights bool `json:"hasElevatedRights"`
}

// Register handles POST /api/register - creates a new user
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := validateCredentials(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.category, err.message)
		return
	}

	if len(strings.TrimSpace(req.Password)) < MinPasswordLength {
		response.WriteError(w, http.StatusBadRequest, "password_too_short",
			"Provided password is too short. The minimum length is 8")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), BcryptCost)
	if err != nil {
		h.logger.Error("password_hash_failed", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := h.userRepo.CreateUser(r.Context(), user); err != nil {
		var existsErr *repository.AlreadyExistsError
		if errors.As(err, &existsErr) {
			response.WriteError(w, http.StatusConflict, "already_exists", existsErr.Error())
			return
		}

		h.logger.Error("user_create_failed", "email", req.Email, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID, "email", user.Email)
	response.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/login - authenticates a user and issues a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := validateCredentials(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.category, err.message)
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			response.WriteError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
			return
		}

		h.logger.Error("user_lookup_failed", "email", req.Email, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		response.WriteError(w, http.StatusUnauthorized, "bad_credentials", "Wrong password")
		return
	}

	token, err := identity.SignToken(h.secret, identity.Identity{
		ID:                user.ID.String(),
		Email:             user.Email,
		HasElevatedRights: user.HasElevatedRights,
	}, time.Now())
	if err != nil {
		h.logger.Error("token_sign_failed", "user_id", user.ID, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID, "email", user.Email)
	response.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:             token,
		DaysUntilExpires:  DaysUntilExpires,
		HasElevatedRights: user.HasElevatedRights,
	})
}

// Validate handles POST /api/validate - verifies a token for other services
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	id, err := identity.ParseToken(h.secret, req.Token)
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	response.WriteJSON(w, http.StatusOK, ValidateResponse{HasElevatedRights: id.HasElevatedRights})
}

// credentialsError carries a response category alongside the message.
type credentialsError struct {
	category string
	message  string
}

// validateCredentials checks presence and shape of the email and password and
// normalizes the email in place.
func validateCredentials(req *CredentialsRequest) *credentialsError {
	if req.Email == "" {
		return &credentialsError{category: "bad_credentials", message: "Email must be provided"}
	}
	if req.Password == "" {
		return &credentialsError{category: "bad_credentials", message: "Password must be provided"}
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return &credentialsError{category: "invalid_email", message: "Email invalid"}
	}

	return nil
}
