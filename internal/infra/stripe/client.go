package stripe

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// providerTimeout bounds every outbound Stripe call. A timed-out lookup is a
// transient failure; the caller leaves the event for the next delivery.
const providerTimeout = 10 * time.Second

// Provider is the slice of the Stripe API this app consumes. The webhook
// reconciler and the billing handlers receive it explicitly so tests can
// substitute a fake.
type Provider interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
	UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// Client implements Provider against the real Stripe API. No package-level
// stripe.Key is set; the key lives in this client only.
type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

func (c *Client) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return c.api.Subscriptions.Get(id, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
			Expand:  []*string{stripe.String("subscription"), stripe.String("customer")},
		},
	}
	return c.api.CheckoutSessions.Get(id, params)
}

func (c *Client) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	params.Context = ctx
	return c.api.Customers.New(params)
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	params.Context = ctx
	return c.api.CheckoutSessions.New(params)
}

func (c *Client) CreatePortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	params.Context = ctx
	return c.api.BillingPortalSessions.New(params)
}

func (c *Client) UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	params.Context = ctx
	return c.api.Subscriptions.Update(id, params)
}
