package billing

import (
	"fmt"
	"net/http"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// CreateCheckoutSession starts a Stripe checkout for a paid plan. The
// metadata bag {user_id, plan_id, billing_interval} goes on both the session
// and the subscription: it is what lets the webhook side attribute events
// back to the user, including after out-of-order delivery.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		PlanID   string `json:"plan_id"`
		Interval string `json:"interval"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan_id"})
		return
	}
	if body.Interval == "" {
		body.Interval = billing.IntervalMonthly
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	if _, ok := plans.ByID(body.PlanID); !ok || body.PlanID == plans.FreePlanID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or non-purchasable plan"})
		return
	}
	priceID, ok := h.prices.PriceFor(body.PlanID, body.Interval)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No price configured for plan/interval"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email first"})
		return
	}

	// ensure stripe customer
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		cus, err := h.provider.CreateCustomer(c.Request.Context(), &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.Name + " " + user.Lastname),
			Metadata: map[string]string{
				"user_id": fmt.Sprint(user.ID),
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
			return
		}
		if err := database.DB.Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", cus.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
			return
		}
		user.StripeCustomerID = stripe.String(cus.ID)
	}

	metadata := map[string]string{
		"user_id":          fmt.Sprint(user.ID),
		"plan_id":          body.PlanID,
		"billing_interval": body.Interval,
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(h.appURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(h.appURL + "/dashboard?canceled=true"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(*user.StripeCustomerID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(fmt.Sprint(user.ID)),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}

	s, err := h.provider.CreateCheckoutSession(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

// CreateBillingPortal opens a Stripe customer-portal session for self-serve
// payment method and invoice management.
func (h *Handler) CreateBillingPortal(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No Stripe customer for this account"})
		return
	}

	s, err := h.provider.CreatePortalSession(c.Request.Context(), &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(h.appURL + "/dashboard"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create billing portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}
