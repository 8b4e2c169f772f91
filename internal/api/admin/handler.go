package admin

import (
	"net/http"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Lastname         string  `json:"lastname"`
	Email            string  `json:"email"`
	Role             string  `json:"role"`
	IsVerified       bool    `json:"is_verified"`
	PlanID           *string `json:"plan_id,omitempty"`
	SubscriptionID   *string `json:"stripe_subscription_id,omitempty"`
	StripeCustomerID *string `json:"stripe_customer_id,omitempty"`
}

type AdminStats struct {
	TotalUsers    int            `json:"total_users"`
	TotalRevenue  float64        `json:"total_revenue"`
	RecentRevenue float64        `json:"recent_revenue"`
	UsersPerPlan  map[string]int `json:"users_per_plan"`
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	var result []AdminUser
	for _, u := range all {
		row := AdminUser{
			ID:               u.ID,
			Name:             u.Name,
			Lastname:         u.Lastname,
			Email:            u.Email,
			Role:             u.Role,
			IsVerified:       u.IsVerified,
			StripeCustomerID: u.StripeCustomerID,
		}
		if sub, err := billing.ActiveForUser(database.DB, u.ID); err == nil && sub != nil {
			planID := sub.PlanID
			row.PlanID = &planID
			row.SubscriptionID = sub.StripeSubscriptionID
		}
		result = append(result, row)
	}

	c.JSON(http.StatusOK, result)
}

func ListAllInvoices(c *gin.Context) {
	var invoices []billing.Invoice
	if err := database.DB.Order("created_at DESC").Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func GetAdminStats(c *gin.Context) {
	var stats AdminStats

	var totalUsers int64
	var totalRevenue float64
	var recentRevenue float64

	database.DB.Model(&users.User{}).Count(&totalUsers)
	database.DB.Model(&billing.Invoice{}).
		Where("status = ?", "paid").
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&totalRevenue)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&billing.Invoice{}).
		Where("status = ? AND created_at >= ?", "paid", thirtyDaysAgo).
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&recentRevenue)

	stats.TotalUsers = int(totalUsers)
	stats.TotalRevenue = totalRevenue
	stats.RecentRevenue = recentRevenue

	type PlanCount struct {
		PlanID string
		Count  int
	}
	var counts []PlanCount
	database.DB.
		Table("subscriptions").
		Select("plan_id, COUNT(id) as count").
		Where("status = ?", billing.StatusActive).
		Group("plan_id").
		Scan(&counts)

	stats.UsersPerPlan = map[string]int{}
	for _, pc := range counts {
		stats.UsersPerPlan[pc.PlanID] = pc.Count
	}

	c.JSON(http.StatusOK, stats)
}

func GetUserDetails(c *gin.Context) {
	userID := c.Param("id")

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var subs []billing.Subscription
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	var invoices []billing.Invoice
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"subscriptions": subs,
		"invoices":      invoices,
	})
}
