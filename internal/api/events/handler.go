package events

import (
	"net/http"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/database"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/events"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type eventInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity"`
}

func ListEvents(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var list []events.Event
	if err := events.UserEventsQuery(database.DB, userID).
		Order("starts_at ASC").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateEvent inserts a new event, enforcing the owner's per-plan event
// limit. A user with no active subscription row is treated as free plan.
func CreateEvent(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input eventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := currentPlan(userID)
	if plan.MaxEvents >= 0 {
		count, err := events.CountForUser(database.DB, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
			return
		}
		if count >= int64(plan.MaxEvents) {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": "Event limit reached for your plan",
				"limit": plan.MaxEvents,
			})
			return
		}
	}

	event := events.Event{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
	}
	if err := database.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

func GetEvent(c *gin.Context) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, event)
}

func UpdateEvent(c *gin.Context) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}

	var input eventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.DB.Model(event).Updates(map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"location":    input.Location,
		"starts_at":   input.StartsAt,
		"ends_at":     input.EndsAt,
		"capacity":    input.Capacity,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func DeleteEvent(c *gin.Context) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}
	if err := database.DB.Delete(event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

func PublishEvent(c *gin.Context) {
	setPublished(c, true)
}

func UnpublishEvent(c *gin.Context) {
	setPublished(c, false)
}

func setPublished(c *gin.Context, published bool) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}
	if err := database.DB.Model(event).Update("published", published).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}
	c.JSON(http.StatusOK, event)
}

func loadOwnedEvent(c *gin.Context) (*events.Event, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	var event events.Event
	if err := database.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil, false
	}
	return &event, true
}

func currentPlan(userID uint) plans.Plan {
	free, _ := plans.ByID(plans.FreePlanID)
	sub, err := billing.ActiveForUser(database.DB, userID)
	if err != nil || sub == nil {
		return free
	}
	if plan, ok := plans.ByID(sub.PlanID); ok {
		return plan
	}
	return free
}
