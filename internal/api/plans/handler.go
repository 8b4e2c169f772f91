package plans

import (
	"net/http"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// ListPlans returns the static plan catalog for the plan selector.
func ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, plans.Catalog())
}
