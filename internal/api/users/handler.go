package users

import (
	"net/http"
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/domain/users"

	"github.com/gin-gonic/gin"
)

func GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	resp := gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	}

	var restaurant restaurants.Restaurant
	if err := database.DB.Where("user_id = ?", userID).First(&restaurant).Error; err == nil {
		resp["restaurant"] = gin.H{
			"id":       restaurant.ID,
			"name":     restaurant.Name,
			"slug":     restaurant.Slug,
			"qr_token": restaurant.QRToken,
		}

		var sub subscriptions.Subscription
		if err := database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error; err == nil {
			now := time.Now()
			resp["subscription"] = gin.H{
				"plan":           sub.Plan,
				"status":         sub.Status,
				"is_active":      sub.IsActive(now),
				"days_remaining": sub.DaysRemaining(now),
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
