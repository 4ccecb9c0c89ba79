package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/billing"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm/clause"
)

// handleCheckoutSessionCompleted upserts the restaurant's subscription from
// the completed checkout. Upsert, not update: the trial row created with the
// restaurant may not be visible yet when the webhook lands, and redelivery of
// the same event must settle on the same state.
func handleCheckoutSessionCompleted(c *gin.Context, session *stripe.CheckoutSession) error {
	userID, err := idFromMetadata(session.Metadata, "user_id", session.ClientReferenceID)
	if err != nil {
		return err
	}
	restaurantID, err := idFromMetadata(session.Metadata, "restaurant_id", "")
	if err != nil {
		return err
	}

	if session.Subscription == nil || session.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}
	subscriptionID := session.Subscription.ID

	subData, err := billing.Client.GetSubscription(subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription: %w", err)
	}
	if subData == nil || subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		return errors.New("subscription has no priced items")
	}

	price := subData.Items.Data[0].Price
	cycle := subscriptions.CycleMonthly
	if price.Recurring != nil {
		cycle = subscriptions.CycleFromInterval(string(price.Recurring.Interval))
	}

	periodStart := time.Unix(subData.CurrentPeriodStart, 0)
	periodEnd := time.Unix(subData.CurrentPeriodEnd, 0)

	var customerID *string
	if session.Customer != nil && session.Customer.ID != "" {
		customerID = stripe.String(session.Customer.ID)
	} else if subData.Customer != nil && subData.Customer.ID != "" {
		customerID = stripe.String(subData.Customer.ID)
	}

	// Entitlement is derived from the provider-reported price, never from the
	// metadata plan label the client supplied at checkout time.
	sub := subscriptions.Subscription{
		UserID:               userID,
		RestaurantID:         restaurantID,
		StripeSubscriptionID: stripe.String(subscriptionID),
		StripeCustomerID:     customerID,
		StripePriceID:        stripe.String(price.ID),
		Plan:                 subscriptions.PlanPremium,
		BillingCycle:         cycle,
		Status:               subscriptions.StatusActive,
		CurrentPeriodStart:   &periodStart,
		CurrentPeriodEnd:     &periodEnd,
	}

	err = database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"stripe_subscription_id",
			"stripe_customer_id",
			"stripe_price_id",
			"plan",
			"billing_cycle",
			"status",
			"current_period_start",
			"current_period_end",
		}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription after checkout: %w", err)
	}

	cache.InvalidateSubscription(c.Request.Context(), restaurantID)
	return nil
}

func idFromMetadata(md map[string]string, key string, fallback string) (uint, error) {
	s := ""
	if md != nil {
		s = md[key]
	}
	if s == "" {
		s = fallback
	}
	if s == "" {
		return 0, fmt.Errorf("missing %s in session metadata", key)
	}

	id64, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return uint(id64), nil
}
