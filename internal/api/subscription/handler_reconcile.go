package subscription

import (
	"net/http"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
)

// Reconcile repairs a known drift class: a webhook marked the subscription
// active and attached a Stripe id, but the plan label is still "trial". It is
// checked before written, so calling it on a consistent record changes
// nothing.
func Reconcile(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	_, sub := findByOwner(userID)
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found for this restaurant"})
		return
	}

	drifted := sub.Plan == subscriptions.PlanTrial &&
		sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID != "" &&
		sub.Status == subscriptions.StatusActive

	if !drifted {
		c.JSON(http.StatusOK, gin.H{"message": "No changes needed"})
		return
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", sub.ID).
		Update("plan", subscriptions.PlanPremium).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to repair subscription"})
		return
	}

	cache.InvalidateSubscription(c.Request.Context(), sub.RestaurantID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Subscription plan repaired",
		"plan":    subscriptions.PlanPremium,
	})
}
