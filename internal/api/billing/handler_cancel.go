package billing

import (
	"net/http"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// CancelSubscription requests cancellation at period end. The subscription
// stays active until Stripe ends the period and sends
// customer.subscription.deleted; the webhook side handles the fallback to
// the free plan then.
func (h *Handler) CancelSubscription(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	sub, err := billing.ActiveForUser(database.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if sub == nil || !sub.IsPaid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active paid subscription found"})
		return
	}

	_, err = h.provider.UpdateSubscription(c.Request.Context(), *sub.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription", "details": err.Error()})
		return
	}

	now := time.Now()
	if err := database.DB.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"auto_renew":  false,
			"canceled_at": now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store cancellation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subscription will be canceled at period end",
	})
}
