package stripewebhooks

import (
	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionDeleted finalizes a cancellation once the paid period has
// lapsed on the Stripe side.
func handleSubscriptionDeleted(c *gin.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	var local subscriptions.Subscription
	if err := database.DB.Where("stripe_subscription_id = ?", sub.ID).First(&local).Error; err != nil {
		return nil
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", local.ID).
		Update("status", subscriptions.StatusCanceled).Error; err != nil {
		return err
	}

	cache.InvalidateSubscription(c.Request.Context(), local.RestaurantID)
	return nil
}
