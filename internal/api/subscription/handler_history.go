package subscription

import (
	"net/http"
	"time"

	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/users"
	"qrmenu-backend/internal/infra/billing"

	"github.com/gin-gonic/gin"
)

type InvoiceDTO struct {
	ID       string    `json:"id"`
	Amount   float64   `json:"amount"` // major units
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
	Date     time.Time `json:"date"`
	PDFURL   string    `json:"pdfUrl"`
	Number   string    `json:"number"`
	PlanName string    `json:"planName"`
}

const historyLimit = 12

// GetHistory lists the caller's recent invoices. A user still on trial has no
// Stripe customer and gets an empty list, not an error.
func GetHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusOK, []InvoiceDTO{})
		return
	}

	invoices, err := billing.Client.ListInvoices(*user.StripeCustomerID, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}

	result := []InvoiceDTO{}
	for _, inv := range invoices {
		planName := "Premium"
		if inv.Lines != nil && len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Description != "" {
			planName = inv.Lines.Data[0].Description
		}

		// open and failed invoices have nothing paid yet
		amount := inv.AmountPaid
		if amount == 0 {
			amount = inv.AmountDue
		}

		result = append(result, InvoiceDTO{
			ID:       inv.ID,
			Amount:   float64(amount) / 100.0,
			Currency: string(inv.Currency),
			Status:   string(inv.Status),
			Date:     time.Unix(inv.Created, 0),
			PDFURL:   inv.InvoicePDF,
			Number:   inv.Number,
			PlanName: planName,
		})
	}

	c.JSON(http.StatusOK, result)
}
