package stripewebhooks

import (
	"context"
	"fmt"
	"testing"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
)

func checkoutSession(id, subID string, userID uint) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:           id,
		Subscription: &stripe.Subscription{ID: subID},
		Customer:     &stripe.Customer{ID: "cus_1"},
		Metadata: map[string]string{
			"user_id":          fmt.Sprintf("%d", userID),
			"plan_id":          "pro",
			"billing_interval": "monthly",
		},
	}
}

func TestCheckoutCompletedCreatesSubscription(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	err := h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1))
	require.NoError(t, err)

	sub := activeSub(t, db, 1)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, billing.StatusActive, sub.Status)
	assert.Equal(t, billing.IntervalMonthly, sub.BillingInterval)
	assert.True(t, sub.AutoRenew)
	assert.Equal(t, testNow.Unix(), sub.StartDate.Unix())
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, testNow.AddDate(0, 1, 0).Unix(), sub.EndDate.Unix())
	require.NotNil(t, sub.NextBillingDate)
	assert.Equal(t, testNow.AddDate(0, 1, 0).Unix(), sub.NextBillingDate.Unix())
	require.NotNil(t, sub.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *sub.StripeSubscriptionID)
	require.NotNil(t, sub.StripeCustomerID)
	assert.Equal(t, "cus_1", *sub.StripeCustomerID)
	require.NotNil(t, sub.StripePriceID)
	assert.Equal(t, "price_pro_m", *sub.StripePriceID)
}

func TestCheckoutCompletedReplayIsNoop(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	session := checkoutSession("cs_1", "sub_1", 1)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), session))
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), session))
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), session))

	assert.EqualValues(t, 1, countSubscriptions(t, db, 1))
	// The replay short-circuits on the local row, no provider round trip.
	assert.Equal(t, 1, provider.getSubCalls)
}

func TestCheckoutCompletedExpiresPreviousSubscription(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	require.NoError(t, billing.EnsureFreeSubscription(db, 1, testNow.AddDate(0, -1, 0)))

	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	sub := activeSub(t, db, 1)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.PlanID)

	var active int64
	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("user_id = ? AND status IN ?", 1, []string{billing.StatusActive, billing.StatusTrialing}).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)

	var free billing.Subscription
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", 1, "free").First(&free).Error)
	assert.Equal(t, billing.StatusExpired, free.Status)
	require.NotNil(t, free.EndDate)
}

func TestCheckoutCompletedWithoutAttributionIsDropped(t *testing.T) {
	h, provider, db := newTestHandler(t)
	sub := providerSub("sub_1", 0, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	sub.Metadata = nil
	provider.subs["sub_1"] = sub

	session := &stripe.CheckoutSession{
		ID:           "cs_1",
		Subscription: &stripe.Subscription{ID: "sub_1"},
	}
	// No metadata anywhere and no client reference: nothing to attribute,
	// and a retry would see the same payload.
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), session))

	var n int64
	require.NoError(t, db.Model(&billing.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutCompletedUsesClientReferenceFallback(t *testing.T) {
	h, provider, db := newTestHandler(t)
	sub := providerSub("sub_1", 0, "", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	sub.Metadata = nil
	provider.subs["sub_1"] = sub

	session := &stripe.CheckoutSession{
		ID:                "cs_1",
		Subscription:      &stripe.Subscription{ID: "sub_1"},
		ClientReferenceID: "42",
	}
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), session))

	row := activeSub(t, db, 42)
	require.NotNil(t, row)
	// Plan and interval recovered from the price mapping.
	assert.Equal(t, "pro", row.PlanID)
	assert.Equal(t, billing.IntervalMonthly, row.BillingInterval)
}

func TestCheckoutCompletedFetchesThinSession(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 3, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	provider.sessions["cs_1"] = checkoutSession("cs_1", "sub_1", 3)

	// Payload session with no subscription reference at all.
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), &stripe.CheckoutSession{ID: "cs_1"}))

	require.NotNil(t, activeSub(t, db, 3))
}

func TestInvoicePaidBeforeCheckoutReconstructsSubscription(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	invoice := &stripe.Invoice{
		ID:           "in_1",
		Subscription: &stripe.Subscription{ID: "sub_1"},
		AmountPaid:   2900,
		Currency:     "eur",
		PeriodStart:  testNow.Unix(),
		PeriodEnd:    testNow.AddDate(0, 1, 0).Unix(),
	}
	require.NoError(t, h.handleInvoicePaid(context.Background(), invoice))

	sub := activeSub(t, db, 1)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, billing.StatusActive, sub.Status)
	require.NotNil(t, sub.LastPaymentDate)

	var ledger billing.Invoice
	require.NoError(t, db.Where("stripe_invoice_id = ?", "in_1").First(&ledger).Error)
	assert.Equal(t, sub.UserID, ledger.UserID)
	assert.Equal(t, sub.ID, ledger.SubscriptionID)
	assert.InDelta(t, 29.0, ledger.AmountEUR, 0.001)

	// The late-arriving checkout event must not create a second row.
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))
	assert.EqualValues(t, 1, countSubscriptions(t, db, 1))
}

func TestInvoicePaidLedgerEntryIsWrittenOnce(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	invoice := &stripe.Invoice{
		ID:           "in_1",
		Subscription: &stripe.Subscription{ID: "sub_1"},
		AmountPaid:   2900,
		Currency:     "eur",
		PeriodStart:  testNow.Unix(),
		PeriodEnd:    testNow.AddDate(0, 1, 0).Unix(),
	}
	require.NoError(t, h.handleInvoicePaid(context.Background(), invoice))
	require.NoError(t, h.handleInvoicePaid(context.Background(), invoice))

	var n int64
	require.NoError(t, db.Model(&billing.Invoice{}).Where("stripe_invoice_id = ?", "in_1").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestInvoicePaidWithoutSubscriptionIsIgnored(t *testing.T) {
	h, _, db := newTestHandler(t)

	require.NoError(t, h.handleInvoicePaid(context.Background(), &stripe.Invoice{ID: "in_1"}))

	var n int64
	require.NoError(t, db.Model(&billing.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPaymentFailedMarksSubscriptionPastDue(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	invoice := &stripe.Invoice{ID: "in_1", Subscription: &stripe.Subscription{ID: "sub_1"}}
	require.NoError(t, h.handlePaymentFailed(context.Background(), invoice))

	var sub billing.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.Equal(t, billing.StatusPastDue, sub.Status)
}

func TestPaymentFailedForUnknownSubscriptionIsNoop(t *testing.T) {
	h, _, db := newTestHandler(t)

	invoice := &stripe.Invoice{ID: "in_1", Subscription: &stripe.Subscription{ID: "sub_missing"}}
	require.NoError(t, h.handlePaymentFailed(context.Background(), invoice))

	var n int64
	require.NoError(t, db.Model(&billing.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubscriptionUpdatedAppliesProviderState(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	// User switched to yearly and scheduled a cancellation.
	update := providerSub("sub_1", 1, "pro", "price_pro_y", stripe.PriceRecurringIntervalYear)
	update.CancelAtPeriodEnd = true
	update.CurrentPeriodEnd = testNow.AddDate(1, 0, 0).Unix()
	require.NoError(t, h.handleSubscriptionUpdated(context.Background(), update))

	var sub billing.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.Equal(t, billing.StatusActive, sub.Status)
	assert.False(t, sub.AutoRenew)
	require.NotNil(t, sub.StripePriceID)
	assert.Equal(t, "price_pro_y", *sub.StripePriceID)
	require.NotNil(t, sub.NextBillingDate)
	assert.Equal(t, testNow.AddDate(1, 0, 0).Unix(), sub.NextBillingDate.Unix())
}

func TestSubscriptionUpdatedBeforeCheckoutReconstructs(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 5, "starter", "price_starter_m", stripe.PriceRecurringIntervalMonth)

	require.NoError(t, h.handleSubscriptionUpdated(context.Background(),
		&stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusActive}))

	sub := activeSub(t, db, 5)
	require.NotNil(t, sub)
	assert.Equal(t, "starter", sub.PlanID)
}

func TestSubscriptionUpdatedWithoutAttributionIsDropped(t *testing.T) {
	h, provider, db := newTestHandler(t)
	sub := providerSub("sub_1", 0, "", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	sub.Metadata = nil
	provider.subs["sub_1"] = sub

	require.NoError(t, h.handleSubscriptionUpdated(context.Background(),
		&stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusActive}))

	var n int64
	require.NoError(t, db.Model(&billing.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubscriptionUpdatedProviderOutageIsTransient(t *testing.T) {
	h, provider, _ := newTestHandler(t)
	provider.err = assert.AnError

	err := h.handleSubscriptionUpdated(context.Background(),
		&stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusActive})
	require.ErrorIs(t, err, ErrTransient)
}

func TestSubscriptionDeletedFallsBackToFreePlan(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	require.NoError(t, h.handleSubscriptionDeleted(context.Background(), &stripe.Subscription{ID: "sub_1"}))

	var old billing.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&old).Error)
	assert.Equal(t, billing.StatusExpired, old.Status)
	assert.False(t, old.AutoRenew)
	require.NotNil(t, old.EndDate)

	current := activeSub(t, db, 1)
	require.NotNil(t, current)
	assert.Equal(t, "free", current.PlanID)
	assert.Nil(t, current.StripeSubscriptionID)
}

func TestSubscriptionDeletedReplayKeepsSingleFreeRow(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_1", 1)))

	deleted := &stripe.Subscription{ID: "sub_1"}
	require.NoError(t, h.handleSubscriptionDeleted(context.Background(), deleted))
	require.NoError(t, h.handleSubscriptionDeleted(context.Background(), deleted))

	var free int64
	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("user_id = ? AND plan_id = ? AND status = ?", 1, "free", billing.StatusActive).
		Count(&free).Error)
	assert.EqualValues(t, 1, free)
}

func TestSubscriptionDeletedAfterUpgradeKeepsReplacement(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_old"] = providerSub("sub_old", 1, "starter", "price_starter_m", stripe.PriceRecurringIntervalMonth)
	provider.subs["sub_new"] = providerSub("sub_new", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_1", "sub_old", 1)))
	require.NoError(t, h.handleCheckoutCompleted(context.Background(), checkoutSession("cs_2", "sub_new", 1)))

	// The delete for the superseded subscription arrives last. The pro
	// subscription stays current, no free row appears.
	require.NoError(t, h.handleSubscriptionDeleted(context.Background(), &stripe.Subscription{ID: "sub_old"}))

	current := activeSub(t, db, 1)
	require.NotNil(t, current)
	assert.Equal(t, "pro", current.PlanID)

	var free int64
	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("user_id = ? AND plan_id = ?", 1, "free").Count(&free).Error)
	assert.Zero(t, free)
}

func TestSubscriptionDeletedUnknownRowUsesMetadata(t *testing.T) {
	h, _, db := newTestHandler(t)

	deleted := &stripe.Subscription{
		ID:       "sub_gone",
		Metadata: map[string]string{"user_id": "9"},
	}
	require.NoError(t, h.handleSubscriptionDeleted(context.Background(), deleted))

	current := activeSub(t, db, 9)
	require.NotNil(t, current)
	assert.Equal(t, "free", current.PlanID)
}

func TestOrderIndependenceFullEventStorm(t *testing.T) {
	h, provider, db := newTestHandler(t)
	provider.subs["sub_1"] = providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)

	invoice := &stripe.Invoice{
		ID:           "in_1",
		Subscription: &stripe.Subscription{ID: "sub_1"},
		AmountPaid:   2900,
		Currency:     "eur",
		PeriodStart:  testNow.Unix(),
		PeriodEnd:    testNow.AddDate(0, 1, 0).Unix(),
	}
	update := providerSub("sub_1", 1, "pro", "price_pro_m", stripe.PriceRecurringIntervalMonth)
	session := checkoutSession("cs_1", "sub_1", 1)

	// Worst-case delivery order with a duplicate mixed in.
	ctx := context.Background()
	require.NoError(t, h.handleInvoicePaid(ctx, invoice))
	require.NoError(t, h.handleSubscriptionUpdated(ctx, update))
	require.NoError(t, h.handleCheckoutCompleted(ctx, session))
	require.NoError(t, h.handleInvoicePaid(ctx, invoice))

	assert.EqualValues(t, 1, countSubscriptions(t, db, 1))
	sub := activeSub(t, db, 1)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, billing.StatusActive, sub.Status)

	var ledger int64
	require.NoError(t, db.Model(&billing.Invoice{}).Count(&ledger).Error)
	assert.EqualValues(t, 1, ledger)
}
