package billing

import (
	"errors"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"

	"gorm.io/gorm"
)

// FindByStripeSubscriptionID returns the subscription row for an external
// subscription id, or (nil, nil) when no row exists.
func FindByStripeSubscriptionID(db *gorm.DB, stripeSubID string) (*Subscription, error) {
	var sub Subscription
	err := db.Where("stripe_subscription_id = ?", stripeSubID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ActiveForUser returns the user's current subscription (active or
// trialing). During the expire-then-insert transition window zero or two
// such rows can exist; the most recently created one is authoritative.
func ActiveForUser(db *gorm.DB, userID uint) (*Subscription, error) {
	var sub Subscription
	err := db.Where("user_id = ? AND status IN ?", userID, []string{StatusActive, StatusTrialing}).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindInvoiceByStripeID returns the ledger entry for a Stripe invoice id,
// or (nil, nil) when none exists.
func FindInvoiceByStripeID(db *gorm.DB, stripeInvoiceID string) (*Invoice, error) {
	var inv Invoice
	err := db.Where("stripe_invoice_id = ?", stripeInvoiceID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ExpireActiveForUser marks every active or trialing row of the user as
// expired. Runs inside the caller's transaction so the paired insert is
// atomic with it.
func ExpireActiveForUser(tx *gorm.DB, userID uint, now time.Time) error {
	return tx.Model(&Subscription{}).
		Where("user_id = ? AND status IN ?", userID, []string{StatusActive, StatusTrialing}).
		Updates(map[string]interface{}{
			"status":   StatusExpired,
			"end_date": now,
		}).Error
}

// EnsureFreeSubscription gives the user an active free-plan row unless an
// active row already exists. Used at account creation and after a Stripe
// subscription is deleted, so every user always resolves to a current plan.
func EnsureFreeSubscription(db *gorm.DB, userID uint, now time.Time) error {
	current, err := ActiveForUser(db, userID)
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	return db.Create(&Subscription{
		UserID:          userID,
		PlanID:          plans.FreePlanID,
		Status:          StatusActive,
		BillingInterval: IntervalMonthly,
		StartDate:       now,
		AutoRenew:       true,
	}).Error
}
