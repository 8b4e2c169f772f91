package stripewebhooks

import (
	"context"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm/clause"
)

// handleInvoicePaid refreshes the subscription after a successful payment
// and appends the ledger entry. The row may not exist yet when this event
// outruns checkout.session.completed; the fallback resolver reconstructs it
// from provider state in that case.
func (h *Handler) handleInvoicePaid(ctx context.Context, invoice *stripe.Invoice) error {
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		h.log.Info("invoice without subscription, ignoring", "invoice_id", invoice.ID)
		return nil
	}
	subID := invoice.Subscription.ID

	sub, err := billing.FindByStripeSubscriptionID(h.db, subID)
	if err != nil {
		return transientf("lookup subscription %s: %v", subID, err)
	}
	if sub == nil {
		sub, err = h.resolveFromProvider(ctx, subID)
		if err != nil {
			return err
		}
		if sub == nil {
			// No user to attribute the payment to. See resolveFromProvider.
			return nil
		}
	}

	subData, err := h.provider.GetSubscription(ctx, subID)
	if err != nil {
		return transientf("fetch subscription %s: %v", subID, err)
	}

	now := h.now()
	nextBilling := time.Unix(subData.CurrentPeriodEnd, 0)
	err = h.db.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":            billing.StatusActive,
			"last_payment_date": now,
			"next_billing_date": nextBilling,
		}).Error
	if err != nil {
		return transientf("update subscription %s after payment: %v", subID, err)
	}

	return h.appendLedgerEntry(sub, invoice, now)
}

// appendLedgerEntry writes the immutable invoice record, idempotent on the
// Stripe invoice id. Always subordinate to a resolved subscription.
func (h *Handler) appendLedgerEntry(sub *billing.Subscription, invoice *stripe.Invoice, paidAt time.Time) error {
	existing, err := billing.FindInvoiceByStripeID(h.db, invoice.ID)
	if err != nil {
		return transientf("lookup invoice %s: %v", invoice.ID, err)
	}
	if existing != nil {
		h.log.Info("ledger entry already written", "stripe_invoice_id", invoice.ID)
		return nil
	}

	row := billing.Invoice{
		UserID:          sub.UserID,
		SubscriptionID:  sub.ID,
		StripeInvoiceID: invoice.ID,
		AmountEUR:       float64(invoice.AmountPaid) / 100.0,
		Currency:        string(invoice.Currency),
		Status:          "paid",
		BillingReason:   string(invoice.BillingReason),
		PeriodStart:     time.Unix(invoice.PeriodStart, 0),
		PeriodEnd:       time.Unix(invoice.PeriodEnd, 0),
		PaidAt:          &paidAt,
	}
	if invoice.InvoicePDF != "" {
		pdf := invoice.InvoicePDF
		row.InvoicePDF = &pdf
	}

	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_invoice_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return transientf("append ledger entry %s: %v", invoice.ID, err)
	}
	h.log.Info("payment recorded",
		"user_id", sub.UserID, "stripe_invoice_id", invoice.ID, "amount_eur", row.AmountEUR)
	return nil
}
