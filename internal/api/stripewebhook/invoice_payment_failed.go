package stripewebhooks

import (
	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// handleInvoicePaymentFailed marks the customer's subscription past_due. The
// invoice references a customer, not a subscription, so the lookup is keyed
// by stripe_customer_id.
func handleInvoicePaymentFailed(c *gin.Context, inv *stripe.Invoice) error {
	if inv.Customer == nil || inv.Customer.ID == "" {
		return nil
	}

	var local subscriptions.Subscription
	if err := database.DB.Where("stripe_customer_id = ?", inv.Customer.ID).First(&local).Error; err != nil {
		return nil
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", local.ID).
		Update("status", subscriptions.StatusPastDue).Error; err != nil {
		return err
	}

	cache.InvalidateSubscription(c.Request.Context(), local.RestaurantID)
	return nil
}
