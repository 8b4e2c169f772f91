package billing

import "time"

// Invoice is an append-only payment record. The Stripe invoice id is the
// natural idempotency key; a row is never mutated after insert.
type Invoice struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"index;not null" json:"user_id"`
	SubscriptionID uint   `gorm:"index;not null" json:"subscription_id"`
	StripeInvoiceID string `gorm:"uniqueIndex:idx_invoices_stripe_invoice_id;not null" json:"stripe_invoice_id"`

	AmountEUR     float64 `json:"amount_eur"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	BillingReason string  `json:"billing_reason"`
	InvoicePDF    *string `json:"invoice_pdf,omitempty"`

	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
