package stripewebhooks

import (
	"context"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
)

// resolveFromProvider reconstructs a missing local row from authoritative
// Stripe state. Webhook delivery order is not guaranteed, so an update or
// payment event can reference a subscription checkout has not created yet;
// the metadata bag set at creation time carries the attribution needed to
// rebuild it.
//
// Returns (nil, nil) when the provider subscription carries no recoverable
// user id: there is no user to attribute the record to, and guessing would
// be worse than dropping.
func (h *Handler) resolveFromProvider(ctx context.Context, stripeSubID string) (*billing.Subscription, error) {
	subData, err := h.provider.GetSubscription(ctx, stripeSubID)
	if err != nil {
		return nil, transientf("resolve subscription %s from provider: %v", stripeSubID, err)
	}

	meta := metadataFrom(subData.Metadata)
	if meta.userID == 0 {
		h.log.Warn("provider subscription carries no user attribution, dropping",
			"stripe_subscription_id", stripeSubID)
		return nil, nil
	}

	row := h.rowFromProvider(meta, subData)
	if err := h.replaceActive(row); err != nil {
		return nil, err
	}
	h.log.Info("subscription reconstructed from provider state",
		"user_id", meta.userID, "plan_id", row.PlanID, "stripe_subscription_id", stripeSubID)

	// Re-read instead of trusting row: a concurrent delivery may have won
	// the insert, in which case its row is the one to use.
	created, err := billing.FindByStripeSubscriptionID(h.db, stripeSubID)
	if err != nil {
		return nil, transientf("reload subscription %s: %v", stripeSubID, err)
	}
	return created, nil
}
