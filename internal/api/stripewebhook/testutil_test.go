package stripewebhooks

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection, or each pooled conn gets its own in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeProvider serves canned subscriptions and checkout sessions. Setting
// err makes every call fail, which the handlers must treat as transient.
type fakeProvider struct {
	subs     map[string]*stripe.Subscription
	sessions map[string]*stripe.CheckoutSession
	err      error

	getSubCalls int
}

func (f *fakeProvider) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	f.getSubCalls++
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", id)
	}
	return sub, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", id)
	}
	return s, nil
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	return &stripe.Customer{ID: "cus_fake"}, f.err
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_fake", URL: "https://checkout.example/cs_fake"}, f.err
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://portal.example"}, f.err
}

func (f *fakeProvider) UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[id], nil
}

func testPriceMap() plans.PriceMap {
	return plans.NewPriceMap(map[string][2]string{
		"price_starter_m": {"starter", "monthly"},
		"price_pro_m":     {"pro", "monthly"},
		"price_pro_y":     {"pro", "yearly"},
	})
}

func newTestHandler(t *testing.T) (*Handler, *fakeProvider, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	provider := &fakeProvider{
		subs:     map[string]*stripe.Subscription{},
		sessions: map[string]*stripe.CheckoutSession{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(db, provider, testWebhookSecret, testPriceMap(), logger)
	h.now = func() time.Time { return testNow }
	return h, provider, db
}

// providerSub builds the subscription the fake provider hands back,
// with the metadata bag a checkout would have attached.
func providerSub(id string, userID uint, planID, priceID string, interval stripe.PriceRecurringInterval) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: stripe.SubscriptionStatusActive,
		Metadata: map[string]string{
			"user_id":          fmt.Sprintf("%d", userID),
			"plan_id":          planID,
			"billing_interval": intervalName(interval),
		},
		CurrentPeriodStart: testNow.Unix(),
		CurrentPeriodEnd:   testNow.AddDate(0, 1, 0).Unix(),
		Customer:           &stripe.Customer{ID: "cus_1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price: &stripe.Price{
					ID:        priceID,
					Recurring: &stripe.PriceRecurring{Interval: interval},
				},
			}},
		},
	}
}

func intervalName(i stripe.PriceRecurringInterval) string {
	if i == stripe.PriceRecurringIntervalYear {
		return "yearly"
	}
	return "monthly"
}

func countSubscriptions(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&billing.Subscription{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func activeSub(t *testing.T, db *gorm.DB, userID uint) *billing.Subscription {
	t.Helper()
	sub, err := billing.ActiveForUser(db, userID)
	require.NoError(t, err)
	return sub
}

// signedPayload produces a Stripe-Signature header Stripe's own verifier
// accepts for the given body.
func signedPayload(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
