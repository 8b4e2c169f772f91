package stripewebhooks

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"
	stripeinfra "github.com/DiegoLonghys/next-stripe-demo/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
)

const maxWebhookBody = 65536

// Handler reconciles Stripe webhook deliveries against the local
// subscription store. Deliveries arrive at-least-once and unordered, so
// every handler re-checks local state and relies on idempotency keys
// instead of delivery order.
type Handler struct {
	db       *gorm.DB
	provider stripeinfra.Provider
	secret   string
	prices   plans.PriceMap
	log      *slog.Logger

	now func() time.Time
}

func New(db *gorm.DB, provider stripeinfra.Provider, secret string, prices plans.PriceMap, logger *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		provider: provider,
		secret:   secret,
		prices:   prices,
		log:      logger,
		now:      time.Now,
	}
}

// HandleWebhook is the single POST receiver for Stripe events. Signature
// verification is the sole admission check; a failed signature gets 400 and
// Stripe will not retry it. After verification, transient handler failures
// return 500 so Stripe redelivers; anything else is acknowledged with 200
// because retrying at the transport level cannot fix it.
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxWebhookBody)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn("stripe signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	ctx := c.Request.Context()

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		h.respond(c, string(event.Type), h.handleCheckoutCompleted(ctx, &session))

	case "invoice.paid":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse invoice"})
			return
		}
		h.respond(c, string(event.Type), h.handleInvoicePaid(ctx, &invoice))

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse invoice"})
			return
		}
		h.respond(c, string(event.Type), h.handlePaymentFailed(ctx, &invoice))

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		h.respond(c, string(event.Type), h.handleSubscriptionUpdated(ctx, &sub))

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		h.respond(c, string(event.Type), h.handleSubscriptionDeleted(ctx, &sub))

	default:
		// Acknowledge unknown events so Stripe does not retry them.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (h *Handler) respond(c *gin.Context, eventType string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	case errors.Is(err, ErrTransient):
		h.log.Error("webhook handler failed, requesting retry", "type", eventType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure"})
	default:
		// Unrecoverable for this delivery; a retry would fail the same way.
		h.log.Error("webhook handler failed, dropping event", "type", eventType, "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
