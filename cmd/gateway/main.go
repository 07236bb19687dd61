package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ecomstack/api-gateway/internal/api/rest/handler"
	"github.com/ecomstack/api-gateway/internal/api/rest/middleware"
	"github.com/ecomstack/api-gateway/internal/api/rest/proxy"
	"github.com/ecomstack/api-gateway/internal/checkout"
	"github.com/ecomstack/api-gateway/internal/downstream"
	"github.com/ecomstack/api-gateway/internal/eventstore"
	stripegw "github.com/ecomstack/api-gateway/internal/payment/stripe"
	repository "github.com/ecomstack/api-gateway/internal/repository/postgres"
	"github.com/ecomstack/api-gateway/internal/version"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultPort = "8080"

	// Processed webhook events are retained well past the provider's retry
	// window.
	WebhookEventTTL = 72 * time.Hour

	ReadHeaderTimeout = 5 * time.Second
	IdleTimeout       = 60 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("gateway_starting", "version", version.Version)

	// Database connection
	dbPool, err := initializeDatabase(fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_DB"),
		getEnv("POSTGRES_SSL", "disable"),
	))
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Webhook event dedup store
	redisClient := redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", "localhost:6379")})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("redis_init_failed", "error", err)
		os.Exit(1)
	}

	secret := []byte(os.Getenv("SECRET_KEY"))
	if len(secret) == 0 {
		logger.Error("secret_key_missing")
		os.Exit(1)
	}

	// Downstream services
	services := downstream.NewClient(downstream.Config{
		ProductsBaseURL: getEnv("PRODUCTS_SERVICE_URL", "http://products-service:8081"),
		CartsBaseURL:    getEnv("CARTS_SERVICE_URL", "http://carts-service:8082"),
		ProfilesBaseURL: getEnv("PROFILES_SERVICE_URL", "http://profiles-service:8083"),
		OrdersBaseURL:   getEnv("ORDERS_SERVICE_URL", "http://orders-service:8084"),
	})

	// Payment provider
	paymentGateway := stripegw.NewGateway(stripegw.Config{
		APIKey:     os.Getenv("STRIPE_API_KEY"),
		Currency:   getEnv("STRIPE_CURRENCY", "eur"),
		SuccessURL: getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
	})

	finalizer := stripegw.NewFinalizer(
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
		services,
		eventstore.New(redisClient, WebhookEventTTL),
		logger,
	)

	orchestrator := checkout.NewOrchestrator(
		services,
		checkout.NewComposer(services),
		paymentGateway,
		logger,
	)

	// REST handlers
	authHandler := handler.NewAuthHandler(repository.NewUserRepository(dbPool), secret, logger)
	checkoutHandler := handler.NewCheckoutHandler(orchestrator, logger)
	paymentHandler := handler.NewPaymentHandler(finalizer, paymentGateway, logger)
	jwtMiddleware := middleware.NewJWTAuthMiddleware(secret)

	serviceProxy, err := newServiceProxy()
	if err != nil {
		logger.Error("proxy_init_failed", "error", err)
		os.Exit(1)
	}

	router := newRouter(authHandler, checkoutHandler, paymentHandler, jwtMiddleware, serviceProxy)

	// Checkout duration is bounded by the downstream services, not by the
	// gateway, so no write timeout is set.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", getEnv("PORT", DefaultPort)),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	logger.Info("gateway_listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("gateway_serve_failed", "error", err)
		os.Exit(1)
	}
}

// initializeDatabase creates a pool and verifies connectivity.
func initializeDatabase(connectionString string) (*pgxpool.Pool, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("create_pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping_db: %w", err)
	}

	return pool, nil
}

// newServiceProxy wires the pass-through routes to the owning services.
func newServiceProxy() (*proxy.Router, error) {
	targets := make(map[string]*url.URL)
	for service, env := range map[string]string{
		"products": "PRODUCTS_SERVICE_URL",
		"carts":    "CARTS_SERVICE_URL",
		"profiles": "PROFILES_SERVICE_URL",
		"orders":   "ORDERS_SERVICE_URL",
	} {
		target, err := url.Parse(getEnv(env, defaultServiceURL(service)))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", env, err)
		}
		targets[service] = target
	}

	return proxy.New(targets), nil
}

func defaultServiceURL(service string) string {
	switch service {
	case "products":
		return "http://products-service:8081"
	case "carts":
		return "http://carts-service:8082"
	case "profiles":
		return "http://profiles-service:8083"
	default:
		return "http://orders-service:8084"
	}
}

// newRouter wires routes and applies the auth middleware to protected
// endpoints. Everything under /api/secure requires a verified token; the
// middleware rewrites it into the downstream identity header.
func newRouter(
	authHandler *handler.AuthHandler,
	checkoutHandler *handler.CheckoutHandler,
	paymentHandler *handler.PaymentHandler,
	jwtMiddleware *middleware.JWTAuthMiddleware,
	serviceProxy *proxy.Router,
) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", handleHealthCheck).Methods(http.MethodGet)

	router.HandleFunc("/api/register", authHandler.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/login", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/validate", authHandler.Validate).Methods(http.MethodPost)

	router.Handle("/api/order", jwtMiddleware.Handler(http.HandlerFunc(checkoutHandler.Checkout))).
		Methods(http.MethodPost)

	router.HandleFunc("/api/payment/webhook", paymentHandler.Webhook).Methods(http.MethodPost)
	router.HandleFunc("/api/payment/session/{id}", paymentHandler.GetSession).Methods(http.MethodGet)

	router.PathPrefix("/api/public/").Handler(serviceProxy)
	router.PathPrefix("/api/secure/").Handler(jwtMiddleware.Handler(serviceProxy))

	return router
}

// handleHealthCheck returns a basic health status.
func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// getEnv reads an environment variable with a fallback.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
