package subscription

import (
	"net/http"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/billing"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// Cancel schedules the Stripe subscription to lapse at period end and mirrors
// the flag locally. Access continues until the deletion webhook arrives; a
// bare trial has nothing to cancel.
func Cancel(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	_, sub := findByOwner(userID)
	if sub == nil || sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No paid subscription to cancel"})
		return
	}

	_, err := billing.Client.UpdateSubscription(*sub.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription", "details": err.Error()})
		return
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", sub.ID).
		Update("cancel_at_period_end", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store cancellation"})
		return
	}

	cache.InvalidateSubscription(c.Request.Context(), sub.RestaurantID)

	c.JSON(http.StatusOK, gin.H{"message": "Subscription will be canceled at the end of the current billing period"})
}
