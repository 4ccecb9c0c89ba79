package subscription

import (
	"fmt"
	"net/http"
	"time"

	"qrmenu-backend/config"
	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/domain/users"
	"qrmenu-backend/internal/infra/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// CreateCheckoutSession starts a hosted Stripe checkout for the caller's
// restaurant. The session metadata carries user_id, restaurant_id and the
// plan label; the completion webhook correlates back through it.
func CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Plan == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan"})
		return
	}

	priceID, ok := config.PlanPrices()[body.Plan]
	if !ok || priceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan"})
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	restaurant, sub := findByOwner(userID)
	if restaurant == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No restaurant found for this account"})
		return
	}

	if sub != nil && sub.Plan != subscriptions.PlanTrial && sub.IsActive(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Restaurant already has an active premium subscription"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	// ensure stripe customer
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		cus, err := billing.Client.CreateCustomer(&stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Metadata: map[string]string{
				"user_id": fmt.Sprint(user.ID),
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
			return
		}

		if err := database.DB.Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", cus.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
			return
		}

		user.StripeCustomerID = stripe.String(cus.ID)
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(config.APP_URL + "/dashboard/billing?success=1"),
		CancelURL:  stripe.String(config.APP_URL + "/dashboard/billing?canceled=1"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(*user.StripeCustomerID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(fmt.Sprint(user.ID)),
	}
	params.AddMetadata("user_id", fmt.Sprint(user.ID))
	params.AddMetadata("restaurant_id", fmt.Sprint(restaurant.ID))
	params.AddMetadata("plan", "Premium")

	s, err := billing.Client.CreateCheckoutSession(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}
