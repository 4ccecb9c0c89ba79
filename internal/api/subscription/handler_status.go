package subscription

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStatus returns the derived billing view the dashboard renders.
func GetStatus(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	restaurant, sub := findByOwner(userID)
	if restaurant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for this account"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found for this restaurant"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"plan":              sub.Plan,
		"status":            sub.Status,
		"isActive":          sub.IsActive(now),
		"daysRemaining":     sub.DaysRemaining(now),
		"currentPeriodEnd":  sub.CurrentPeriodEnd,
		"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
	})
}
