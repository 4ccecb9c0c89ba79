package stripewebhooks

import (
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionUpdated is the authoritative sync point for billing-cycle
// rollover. Status, both period timestamps and the cancellation flag are
// overwritten wholesale from the provider snapshot.
func handleSubscriptionUpdated(c *gin.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	var local subscriptions.Subscription
	if err := database.DB.Where("stripe_subscription_id = ?", sub.ID).First(&local).Error; err != nil {
		// unmatched events are acknowledged, not retried
		return nil
	}

	periodStart := time.Unix(sub.CurrentPeriodStart, 0)
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)

	updates := map[string]interface{}{
		"status":               subscriptions.NormalizeStatus(string(sub.Status)),
		"current_period_start": periodStart,
		"current_period_end":   periodEnd,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", local.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	cache.InvalidateSubscription(c.Request.Context(), local.RestaurantID)
	return nil
}
