package stripewebhooks

import (
	"strconv"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	stripeinfra "github.com/DiegoLonghys/next-stripe-demo/internal/infra/stripe"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventMetadata is the attribution bag attached at checkout/subscription
// creation time. It is the only link from a Stripe subscription back to a
// local user.
type eventMetadata struct {
	userID   uint
	planID   string
	interval string
}

// metadataFrom collects user_id/plan_id/billing_interval from the given
// metadata maps, first hit per key wins. Checkout events carry the bag on
// both the session and the subscription.
func metadataFrom(maps ...map[string]string) eventMetadata {
	var meta eventMetadata
	for _, md := range maps {
		if md == nil {
			continue
		}
		if meta.userID == 0 {
			meta.userID = parseUserID(md["user_id"])
		}
		if meta.planID == "" {
			meta.planID = md["plan_id"]
		}
		if meta.interval == "" {
			meta.interval = md["billing_interval"]
		}
	}
	return meta
}

func parseUserID(s string) uint {
	if s == "" {
		return 0
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(uid)
}

func primaryPriceID(subData *stripe.Subscription) string {
	if subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		return ""
	}
	return subData.Items.Data[0].Price.ID
}

// rowFromProvider builds the local row for a Stripe subscription, filling
// plan and interval from the metadata bag first and falling back to the
// price mapping. Period bounds come from the provider: start_date is the
// period start, end and next billing date the period end.
func (h *Handler) rowFromProvider(meta eventMetadata, subData *stripe.Subscription) *billing.Subscription {
	priceID := primaryPriceID(subData)

	planID := meta.planID
	if planID == "" {
		planID = h.prices.PlanFor(priceID)
	}

	interval := meta.interval
	if interval == "" {
		interval = h.prices.IntervalFor(priceID)
	}
	if interval == "" && subData.Items != nil && len(subData.Items.Data) > 0 &&
		subData.Items.Data[0].Price != nil && subData.Items.Data[0].Price.Recurring != nil {
		interval = stripeinfra.NormalizeInterval(subData.Items.Data[0].Price.Recurring.Interval)
	}
	if interval == "" {
		interval = billing.IntervalMonthly
	}

	periodStart := time.Unix(subData.CurrentPeriodStart, 0)
	periodEnd := time.Unix(subData.CurrentPeriodEnd, 0)
	subID := subData.ID

	row := &billing.Subscription{
		UserID:               meta.userID,
		PlanID:               planID,
		Status:               stripeinfra.NormalizeStatus(subData.Status),
		BillingInterval:      interval,
		StartDate:            periodStart,
		EndDate:              &periodEnd,
		NextBillingDate:      &periodEnd,
		AutoRenew:            !subData.CancelAtPeriodEnd,
		StripeSubscriptionID: &subID,
	}
	if subData.Customer != nil && subData.Customer.ID != "" {
		cid := subData.Customer.ID
		row.StripeCustomerID = &cid
	}
	if priceID != "" {
		pid := priceID
		row.StripePriceID = &pid
	}
	return row
}

// replaceActive expires the user's current active rows and inserts the new
// one in a single transaction, closing the zero-or-two-active window for
// other writers. The unique index on stripe_subscription_id absorbs the
// duplicate-insert race between concurrent deliveries of the same event.
func (h *Handler) replaceActive(row *billing.Subscription) error {
	now := h.now()
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := billing.ExpireActiveForUser(tx, row.UserID, now); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoNothing: true,
		}).Create(row).Error
	})
	if err != nil {
		return transientf("replace active subscription for user %d: %v", row.UserID, err)
	}
	return nil
}
