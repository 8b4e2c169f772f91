package stripewebhooks

import (
	"context"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	stripeinfra "github.com/DiegoLonghys/next-stripe-demo/internal/infra/stripe"

	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionUpdated overwrites the local row with provider-reported
// state. A missing row is treated as an implicit creation via the fallback
// resolver; the resolver's snapshot already reflects this update, so no
// second write is needed.
func (h *Handler) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	row, err := billing.FindByStripeSubscriptionID(h.db, sub.ID)
	if err != nil {
		return transientf("lookup subscription %s: %v", sub.ID, err)
	}
	if row == nil {
		_, err := h.resolveFromProvider(ctx, sub.ID)
		return err
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	updates := map[string]interface{}{
		"status":            stripeinfra.NormalizeStatus(sub.Status),
		"end_date":          periodEnd,
		"next_billing_date": periodEnd,
		"auto_renew":        !sub.CancelAtPeriodEnd,
	}
	if priceID := primaryPriceID(sub); priceID != "" {
		updates["stripe_price_id"] = priceID
		updates["plan_id"] = h.prices.PlanFor(priceID)
	}

	err = h.db.Model(&billing.Subscription{}).
		Where("id = ?", row.ID).
		Updates(updates).Error
	if err != nil {
		return transientf("update subscription %s: %v", sub.ID, err)
	}
	h.log.Info("subscription updated",
		"user_id", row.UserID, "stripe_subscription_id", sub.ID,
		"status", updates["status"], "auto_renew", updates["auto_renew"])
	return nil
}
