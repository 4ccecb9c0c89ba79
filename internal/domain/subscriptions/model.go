package subscriptions

import (
	"math"
	"time"

	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/users"
)

// Plan is the entitlement tier, distinct from Status (the billing state).
const (
	PlanTrial   = "trial"
	PlanPremium = "premium"
)

const (
	CycleTrial   = "trial"
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Stripe subscription statuses we persist verbatim.
const (
	StatusTrialing   = "trialing"
	StatusActive     = "active"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusUnpaid     = "unpaid"
	StatusIncomplete = "incomplete"
)

const TrialDays = 7

// Subscription is the billing state of one restaurant. Created in trialing
// state together with the restaurant, then kept in sync with Stripe through
// checkout completion and webhook events.
type Subscription struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index:idx_subscriptions_user_id"`
	User   users.User

	RestaurantID uint `gorm:"not null;uniqueIndex:idx_subscriptions_restaurant_id"`
	Restaurant   restaurants.Restaurant

	// Stripe references, nil until the first checkout completes. The
	// subscription id is the join key for all later webhook updates.
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_subscriptions_stripe_subscription_id"`
	StripeCustomerID     *string `gorm:"column:stripe_customer_id;index:idx_subscriptions_stripe_customer_id"`
	StripePriceID        *string `gorm:"column:stripe_price_id"`

	Plan         string `gorm:"type:varchar(20);not null;default:'trial'"`
	BillingCycle string `gorm:"type:varchar(20);not null;default:'trial'"`
	Status       string `gorm:"type:varchar(20);not null;default:'trialing'"`

	TrialStart time.Time
	TrialEnd   time.Time

	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	// true once the user asked to cancel; access continues until the paid
	// period lapses and the deletion webhook flips Status to canceled.
	CancelAtPeriodEnd bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrial builds the trialing subscription created alongside a restaurant.
func NewTrial(userID, restaurantID uint, now time.Time) Subscription {
	return Subscription{
		UserID:       userID,
		RestaurantID: restaurantID,
		Plan:         PlanTrial,
		BillingCycle: CycleTrial,
		Status:       StatusTrialing,
		TrialStart:   now,
		TrialEnd:     now.AddDate(0, 0, TrialDays),
	}
}

// IsActive reports whether the subscription currently grants access:
// a paid active subscription, or a trial that has not lapsed yet.
func (s *Subscription) IsActive(now time.Time) bool {
	switch s.Status {
	case StatusActive:
		return true
	case StatusTrialing:
		return now.Before(s.TrialEnd)
	default:
		return false
	}
}

// DaysRemaining counts down to the trial end while trialing, otherwise to the
// current paid period end. Never negative.
func (s *Subscription) DaysRemaining(now time.Time) int {
	var end time.Time
	if s.Status == StatusTrialing {
		end = s.TrialEnd
	} else if s.CurrentPeriodEnd != nil {
		end = *s.CurrentPeriodEnd
	} else {
		return 0
	}

	days := int(math.Ceil(end.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
