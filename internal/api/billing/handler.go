package billing

import (
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"
	stripeinfra "github.com/DiegoLonghys/next-stripe-demo/internal/infra/stripe"
)

// Handler bundles the billing API's outbound dependencies. These endpoints
// are thin wrappers around Stripe; the reconciliation logic lives in the
// webhook package.
type Handler struct {
	provider stripeinfra.Provider
	prices   plans.PriceMap
	appURL   string
}

func NewHandler(provider stripeinfra.Provider, prices plans.PriceMap, appURL string) *Handler {
	return &Handler{provider: provider, prices: prices, appURL: appURL}
}
