package restaurants

import (
	"fmt"
	"net/http"
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateRestaurant creates the caller's restaurant together with its trialing
// subscription in one transaction. Either both rows exist afterwards or
// neither does.
func CreateRestaurant(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var input struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant := restaurants.Restaurant{
		UserID:  userID,
		Name:    input.Name,
		Slug:    restaurants.Slugify(input.Name),
		Address: input.Address,
		QRToken: restaurants.NewQRToken(),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// disambiguate before inserting: a failed INSERT would abort the
		// whole transaction on postgres, so there is no retrying it
		var taken int64
		if err := tx.Model(&restaurants.Restaurant{}).
			Where("slug = ?", restaurant.Slug).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			restaurant.Slug = fmt.Sprintf("%s-%d", restaurant.Slug, time.Now().UnixMilli()%100000)
		}

		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}

		sub := subscriptions.NewTrial(userID, restaurant.ID, time.Now())
		return tx.Create(&sub).Error
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create restaurant", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, restaurant)
}

// UpdateRestaurant runs behind RequireActiveSubscription, which has already
// resolved ownership and put the restaurant in the context.
func UpdateRestaurant(c *gin.Context) {
	restaurant := c.MustGet("restaurant").(*restaurants.Restaurant)

	var input struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := database.DB.Model(&restaurants.Restaurant{}).
		Where("id = ?", restaurant.ID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update restaurant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated"})
}

func DeleteRestaurant(c *gin.Context) {
	restaurant := c.MustGet("restaurant").(*restaurants.Restaurant)

	// subscription rows cascade with their restaurant
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurant.ID).
			Delete(&subscriptions.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&restaurants.Restaurant{}, restaurant.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete restaurant"})
		return
	}

	cache.InvalidateSubscription(c.Request.Context(), restaurant.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// RegenerateQR rotates the QR token; previously printed codes stop resolving.
func RegenerateQR(c *gin.Context) {
	restaurant := c.MustGet("restaurant").(*restaurants.Restaurant)

	token := restaurants.NewQRToken()
	if err := database.DB.Model(&restaurants.Restaurant{}).
		Where("id = ?", restaurant.ID).
		Update("qr_token", token).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate QR token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"qr_token": token})
}

// GetMenuByToken is the public entry point behind the printed QR code. Menu
// contents are served by the menu service; this resolves the tenant.
func GetMenuByToken(c *gin.Context) {
	token := c.Param("qrToken")

	var restaurant restaurants.Restaurant
	if err := database.DB.Where("qr_token = ?", token).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": gin.H{
			"id":      restaurant.ID,
			"name":    restaurant.Name,
			"slug":    restaurant.Slug,
			"address": restaurant.Address,
		},
	})
}
