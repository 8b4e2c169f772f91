package stripewebhooks

import (
	"context"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// handlePaymentFailed marks the subscription past_due. Unlike the success
// path there is no fallback reconstruction here: a failed payment for a
// subscription we never saw is not a reason to create one.
func (h *Handler) handlePaymentFailed(ctx context.Context, invoice *stripe.Invoice) error {
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		h.log.Info("failed invoice without subscription, ignoring", "invoice_id", invoice.ID)
		return nil
	}
	subID := invoice.Subscription.ID

	sub, err := billing.FindByStripeSubscriptionID(h.db, subID)
	if err != nil {
		return transientf("lookup subscription %s: %v", subID, err)
	}
	if sub == nil {
		h.log.Warn("payment failed for unknown subscription", "stripe_subscription_id", subID)
		return nil
	}

	err = h.db.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Update("status", billing.StatusPastDue).Error
	if err != nil {
		return transientf("mark subscription %s past_due: %v", subID, err)
	}
	h.log.Info("subscription marked past_due",
		"user_id", sub.UserID, "stripe_subscription_id", subID)
	return nil
}
