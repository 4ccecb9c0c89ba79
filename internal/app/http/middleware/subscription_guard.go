package middleware

import (
	"net/http"
	"strconv"
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
)

// RequireActiveSubscription gates restaurant-mutating routes. It resolves the
// :id restaurant, checks the caller owns it, then rejects unless the
// restaurant's subscription is currently active. The rejection body carries
// the current status so the client can tell an expired trial from a failed
// payment. On success the restaurant and subscription are attached to the
// context for the handler.
func RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
			return
		}
		restaurantID := uint(id64)

		var restaurant restaurants.Restaurant
		if err := database.DB.First(&restaurant, restaurantID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
			return
		}

		if restaurant.UserID != userID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not own this restaurant"})
			return
		}

		sub, ok := cache.GetSubscription(c.Request.Context(), restaurantID)
		if !ok {
			var fresh subscriptions.Subscription
			if err := database.DB.Where("restaurant_id = ?", restaurantID).First(&fresh).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":  "No subscription found for this restaurant",
					"status": "none",
				})
				return
			}
			sub = &fresh
			cache.SetSubscription(c.Request.Context(), sub)
		}

		if !sub.IsActive(time.Now()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "Subscription is not active",
				"status": sub.Status,
			})
			return
		}

		c.Set("restaurant", &restaurant)
		c.Set("subscription", sub)
		c.Next()
	}
}
