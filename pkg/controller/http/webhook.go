package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	githubcontroller "github.com/m-mizutani/drover/pkg/controller/github"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret         string
	maxPayloadSize int64
	processor      *githubcontroller.EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, webhookUC interfaces.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{
		secret:         secret,
		maxPayloadSize: DefaultMaxPayloadSize,
		processor:      githubcontroller.NewEventProcessor(webhookUC),
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Read payload
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadSize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctxlog.From(ctx).Warn("Webhook payload too large", "limit", tooLarge.Limit)
			writeError(w, goerr.Wrap(err, "request body too large", goerr.V("limit", tooLarge.Limit)), http.StatusRequestEntityTooLarge)
			return
		}
		ctxlog.From(ctx).Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	// Verify signature
	signature := r.Header.Get("X-Hub-Signature-256")
	if !h.verifySignature(body, signature) {
		ctxlog.From(ctx).Warn("Invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	logger := ctxlog.From(ctx).With("delivery_id", deliveryID, "event_type", eventType)
	ctx = ctxlog.With(ctx, logger)

	if err := h.processor.ProcessEvent(ctx, eventType, deliveryID, body); err != nil {
		logger.Error("Failed to process webhook event", "error", err)
		writeError(w, err, statusOf(err))
		return
	}

	// Success response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":      "success",
		"delivery_id": deliveryID,
	}); err != nil {
		logger.Error("Failed to encode success response", "error", err)
	}
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
