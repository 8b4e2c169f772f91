package stripewebhooks

import (
	"context"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// handleCheckoutCompleted establishes a new billing relationship from a
// completed checkout. The webhook payload may carry a thin session, so the
// expanded session and the subscription are fetched back from Stripe.
func (h *Handler) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	subID := ""
	if session.Subscription != nil {
		subID = session.Subscription.ID
	}
	if subID == "" {
		fullSession, err := h.provider.GetCheckoutSession(ctx, session.ID)
		if err != nil {
			return transientf("fetch expanded checkout session %s: %v", session.ID, err)
		}
		session = fullSession
		if session.Subscription != nil {
			subID = session.Subscription.ID
		}
	}
	if subID == "" {
		h.log.Error("checkout session missing subscription", "session_id", session.ID)
		return nil
	}

	// A row for this Stripe subscription means the event was already
	// applied (or a concurrent delivery won).
	existing, err := billing.FindByStripeSubscriptionID(h.db, subID)
	if err != nil {
		return transientf("lookup subscription %s: %v", subID, err)
	}
	if existing != nil {
		h.log.Info("checkout already reconciled", "stripe_subscription_id", subID)
		return nil
	}

	subData, err := h.provider.GetSubscription(ctx, subID)
	if err != nil {
		return transientf("fetch subscription %s: %v", subID, err)
	}

	meta := metadataFrom(session.Metadata, subData.Metadata)
	if meta.userID == 0 {
		meta.userID = parseUserID(session.ClientReferenceID)
	}
	if meta.userID == 0 {
		h.log.Error("checkout session carries no user attribution",
			"session_id", session.ID, "stripe_subscription_id", subID)
		return nil
	}

	row := h.rowFromProvider(meta, subData)
	if row.StripeCustomerID == nil && session.Customer != nil && session.Customer.ID != "" {
		cid := session.Customer.ID
		row.StripeCustomerID = &cid
	}

	if err := h.replaceActive(row); err != nil {
		return err
	}
	h.log.Info("subscription created from checkout",
		"user_id", meta.userID, "plan_id", row.PlanID, "stripe_subscription_id", subID)
	return nil
}
