package subscription

import (
	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
)

// findByOwner resolves the caller's restaurant and its subscription. Either
// pointer may be nil when the row does not exist yet.
func findByOwner(userID uint) (*restaurants.Restaurant, *subscriptions.Subscription) {
	var restaurant restaurants.Restaurant
	if err := database.DB.Where("user_id = ?", userID).First(&restaurant).Error; err != nil {
		return nil, nil
	}

	var sub subscriptions.Subscription
	if err := database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error; err != nil {
		return &restaurant, nil
	}
	return &restaurant, &sub
}
