package middleware

import (
	"net/http"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// RequirePaidSubscription gates routes that only make sense with a Stripe
// subscription behind an active (or trialing) paid plan.
func RequirePaidSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		sub, err := billing.ActiveForUser(database.DB, userID)
		if err != nil || sub == nil || sub.PlanID == plans.FreePlanID {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "An active paid subscription is required",
			})
			return
		}

		c.Next()
	}
}
