package stripewebhooks

import (
	"context"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionDeleted expires the matching row and, when the user is
// left without any active subscription, falls them back to the free plan so
// every user always resolves to a current plan.
func (h *Handler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}
	now := h.now()

	row, err := billing.FindByStripeSubscriptionID(h.db, sub.ID)
	if err != nil {
		return transientf("lookup subscription %s: %v", sub.ID, err)
	}

	var userID uint
	if row != nil {
		userID = row.UserID
		err = h.db.Model(&billing.Subscription{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"status":     billing.StatusExpired,
				"end_date":   now,
				"auto_renew": false,
			}).Error
		if err != nil {
			return transientf("expire subscription %s: %v", sub.ID, err)
		}
	} else {
		userID = metadataFrom(sub.Metadata).userID
	}

	if userID == 0 {
		h.log.Warn("deleted subscription has no local row and no user metadata",
			"stripe_subscription_id", sub.ID)
		return nil
	}

	// Only when no active row remains: an upgrade may already have created
	// the replacement subscription before this event arrived.
	if err := billing.EnsureFreeSubscription(h.db, userID, now); err != nil {
		return transientf("ensure free subscription for user %d: %v", userID, err)
	}
	h.log.Info("subscription deleted",
		"user_id", userID, "stripe_subscription_id", sub.ID)
	return nil
}
