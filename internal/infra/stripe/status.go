package stripe

import (
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	stripelib "github.com/stripe/stripe-go/v75"
)

// NormalizeStatus maps a Stripe subscription status onto the local
// lifecycle set. Anything Stripe adds that we don't recognize lands on
// expired, the conservative terminal state.
func NormalizeStatus(s stripelib.SubscriptionStatus) string {
	switch s {
	case stripelib.SubscriptionStatusActive:
		return billing.StatusActive
	case stripelib.SubscriptionStatusTrialing:
		return billing.StatusTrialing
	case stripelib.SubscriptionStatusPastDue, stripelib.SubscriptionStatusUnpaid:
		return billing.StatusPastDue
	case stripelib.SubscriptionStatusCanceled, stripelib.SubscriptionStatusIncompleteExpired:
		return billing.StatusCanceled
	default:
		return billing.StatusExpired
	}
}

// NormalizeInterval maps a Stripe recurring interval to the local one.
// Stripe bills month/year; anything else defaults to monthly.
func NormalizeInterval(i stripelib.PriceRecurringInterval) string {
	if i == stripelib.PriceRecurringIntervalYear {
		return billing.IntervalYearly
	}
	return billing.IntervalMonthly
}
