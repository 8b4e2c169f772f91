package billing

import (
	"time"
)

// Subscription lifecycle statuses as stored locally. Stripe statuses are
// normalized into this set (see infra/stripe.NormalizeStatus).
const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusTrialing = "trialing"
	StatusExpired  = "expired"
)

const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Subscription is one row per billing relationship. Rows are never deleted;
// a superseded row transitions to expired. At most one row per user should
// be active at any time, with a narrow two-write window during transitions
// that readers tolerate by treating the most recently created active row
// as authoritative (see ActiveForUser).
type Subscription struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	PlanID          string `gorm:"not null" json:"plan_id"`
	Status          string `gorm:"index;not null" json:"status"`
	BillingInterval string `gorm:"not null" json:"billing_interval"`

	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`

	AutoRenew  bool       `gorm:"not null;default:true" json:"auto_renew"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`

	// Null only for the free plan. The unique index makes the
	// duplicate-check-then-insert pattern atomic across deliveries.
	StripeSubscriptionID *string `gorm:"uniqueIndex:idx_subscriptions_stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	StripeCustomerID     *string `json:"stripe_customer_id,omitempty"`
	StripePriceID        *string `json:"stripe_price_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPaid reports whether the subscription is backed by a Stripe subscription.
func (s *Subscription) IsPaid() bool {
	return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}
