package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

// DefaultMaxPayloadSize is the largest webhook body accepted. GitHub caps
// payloads at 25 MB.
const DefaultMaxPayloadSize int64 = 25 << 20

// config holds internal HTTP server configuration
type config struct {
	addr           string
	webhookSecret  string
	maxPayloadSize int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithMaxPayloadSize limits the size of webhook bodies. Larger requests are
// rejected with 413. Non-positive values keep the default.
func WithMaxPayloadSize(size int64) Option {
	return func(c *config) {
		if size > 0 {
			c.maxPayloadSize = size
		}
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:           "localhost:8080",
		maxPayloadSize: DefaultMaxPayloadSize,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)
	router.Head("/health", handleHealth)

	// Webhook endpoints. The app path receives deliveries of a GitHub App
	// installation, the other one of a repository webhook.
	webhookHandler := NewWebhookHandler(cfg.webhookSecret, webhookUC)
	webhookHandler.maxPayloadSize = cfg.maxPayloadSize
	router.Post("/hooks/github", webhookHandler.Handle)
	router.Post("/hooks/github/app", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
