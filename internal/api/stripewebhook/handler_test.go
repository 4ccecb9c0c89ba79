package stripewebhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qrmenu-backend/config"
	"qrmenu-backend/database"
	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/domain/users"
	"qrmenu-backend/internal/infra/billing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "whsec_test_secret"

type fakeBilling struct {
	subscription *stripe.Subscription
	subErr       error
}

func (f *fakeBilling) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return &stripe.Customer{ID: "cus_fake"}, nil
}

func (f *fakeBilling) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_fake", URL: "https://checkout.stripe.com/pay/cs_fake"}, nil
}

func (f *fakeBilling) GetSubscription(id string) (*stripe.Subscription, error) {
	return f.subscription, f.subErr
}

func (f *fakeBilling) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return f.subscription, nil
}

func (f *fakeBilling) ListInvoices(customerID string, limit int64) ([]*stripe.Invoice, error) {
	return nil, nil
}

func setupTest(t *testing.T) (*gin.Engine, *fakeBilling) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	config.STRIPE_WEBHOOK_SECRET = testWebhookSecret

	fake := &fakeBilling{}
	prev := billing.Client
	billing.Client = fake
	t.Cleanup(func() { billing.Client = prev })

	r := gin.New()
	r.POST("/api/subscription/webhook", StripeWebhook)
	return r, fake
}

func seedRestaurantWithTrial(t *testing.T) (users.User, restaurants.Restaurant, subscriptions.Subscription) {
	t.Helper()

	user := users.User{Name: "Owner", Email: "owner@example.com", Role: "user"}
	require.NoError(t, database.DB.Create(&user).Error)

	restaurant := restaurants.Restaurant{
		UserID:  user.ID,
		Name:    "Trattoria",
		Slug:    "trattoria",
		QRToken: restaurants.NewQRToken(),
	}
	require.NoError(t, database.DB.Create(&restaurant).Error)

	sub := subscriptions.NewTrial(user.ID, restaurant.ID, time.Now())
	require.NoError(t, database.DB.Create(&sub).Error)

	return user, restaurant, sub
}

func signPayload(payload string, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(r *gin.Engine, payload string, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func eventJSON(eventType string, object string) string {
	return fmt.Sprintf(`{"id":"evt_test","object":"event","type":"%s","data":{"object":%s}}`, eventType, object)
}

func checkoutSessionJSON(userID, restaurantID uint) string {
	return fmt.Sprintf(`{
		"id": "cs_test",
		"object": "checkout.session",
		"client_reference_id": "%d",
		"customer": "cus_123",
		"subscription": "sub_123",
		"metadata": {"user_id": "%d", "restaurant_id": "%d", "plan": "Premium"}
	}`, userID, userID, restaurantID)
}

func providerSubscription(start, end time.Time, interval stripe.PriceRecurringInterval) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                 "sub_123",
		Customer:           &stripe.Customer{ID: "cus_123"},
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: start.Unix(),
		CurrentPeriodEnd:   end.Unix(),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{
					ID:        "price_yearly",
					Recurring: &stripe.PriceRecurring{Interval: interval},
				}},
			},
		},
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, _ := setupTest(t)
	_, restaurant, _ := seedRestaurantWithTrial(t)

	payload := eventJSON("customer.subscription.deleted", `{"id":"sub_123","object":"subscription"}`)
	w := postWebhook(r, payload, signPayload(payload, "whsec_wrong_secret"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no mutation happened
	var sub subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error)
	assert.Equal(t, subscriptions.StatusTrialing, sub.Status)
}

func TestWebhookCheckoutCompletedUpgradesTrial(t *testing.T) {
	r, fake := setupTest(t)
	user, restaurant, _ := seedRestaurantWithTrial(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	fake.subscription = providerSubscription(start, end, stripe.PriceRecurringIntervalYear)

	payload := eventJSON("checkout.session.completed", checkoutSessionJSON(user.ID, restaurant.ID))
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)

	var sub subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error)
	assert.Equal(t, subscriptions.PlanPremium, sub.Plan)
	assert.Equal(t, subscriptions.CycleYearly, sub.BillingCycle)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	require.NotNil(t, sub.StripeSubscriptionID)
	assert.Equal(t, "sub_123", *sub.StripeSubscriptionID)
	require.NotNil(t, sub.StripeCustomerID)
	assert.Equal(t, "cus_123", *sub.StripeCustomerID)
	require.NotNil(t, sub.CurrentPeriodStart)
	assert.Equal(t, start.Unix(), sub.CurrentPeriodStart.Unix())
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, end.Unix(), sub.CurrentPeriodEnd.Unix())

	// still exactly one subscription for the restaurant
	var count int64
	database.DB.Model(&subscriptions.Subscription{}).Where("restaurant_id = ?", restaurant.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWebhookCheckoutCompletedIsIdempotent(t *testing.T) {
	r, fake := setupTest(t)
	user, restaurant, _ := seedRestaurantWithTrial(t)

	start := time.Now().Truncate(time.Second)
	end := start.AddDate(0, 1, 0)
	fake.subscription = providerSubscription(start, end, stripe.PriceRecurringIntervalMonth)

	payload := eventJSON("checkout.session.completed", checkoutSessionJSON(user.ID, restaurant.ID))

	w1 := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w1.Code)

	var first subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&first).Error)

	w2 := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w2.Code)

	var second subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&second).Error)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, first.BillingCycle, second.BillingCycle)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CurrentPeriodEnd.Unix(), second.CurrentPeriodEnd.Unix())

	var count int64
	database.DB.Model(&subscriptions.Subscription{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWebhookCheckoutCompletedCreatesRowWhenTrialMissing(t *testing.T) {
	// trial-vs-webhook race: the completion event may land before the trial
	// row is visible, the upsert keyed by restaurant must still work
	r, fake := setupTest(t)

	user := users.User{Name: "Racer", Email: "racer@example.com", Role: "user"}
	require.NoError(t, database.DB.Create(&user).Error)
	restaurant := restaurants.Restaurant{UserID: user.ID, Name: "Race Cafe", Slug: "race-cafe", QRToken: restaurants.NewQRToken()}
	require.NoError(t, database.DB.Create(&restaurant).Error)

	start := time.Now().Truncate(time.Second)
	fake.subscription = providerSubscription(start, start.AddDate(0, 1, 0), stripe.PriceRecurringIntervalMonth)

	payload := eventJSON("checkout.session.completed", checkoutSessionJSON(user.ID, restaurant.ID))
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var sub subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error)
	assert.Equal(t, subscriptions.PlanPremium, sub.Plan)
	assert.Equal(t, subscriptions.CycleMonthly, sub.BillingCycle)
	assert.Equal(t, user.ID, sub.UserID)
}

func TestWebhookCheckoutCompletedRejectsSubscriptionWithoutItems(t *testing.T) {
	r, fake := setupTest(t)
	user, restaurant, _ := seedRestaurantWithTrial(t)

	fake.subscription = &stripe.Subscription{ID: "sub_123"}

	payload := eventJSON("checkout.session.completed", checkoutSessionJSON(user.ID, restaurant.ID))
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "no priced items")

	// trial untouched, stripe will redeliver
	var sub subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&sub).Error)
	assert.Equal(t, subscriptions.PlanTrial, sub.Plan)
	assert.Equal(t, subscriptions.StatusTrialing, sub.Status)
}

func TestWebhookSubscriptionUpdatedSyncsSnapshot(t *testing.T) {
	r, _ := setupTest(t)
	_, restaurant, sub := seedRestaurantWithTrial(t)

	subID := "sub_123"
	require.NoError(t, database.DB.Model(&sub).Updates(map[string]interface{}{
		"stripe_subscription_id": subID,
		"plan":                   subscriptions.PlanPremium,
		"status":                 subscriptions.StatusActive,
	}).Error)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	object := fmt.Sprintf(`{
		"id": "sub_123",
		"object": "subscription",
		"status": "past_due",
		"cancel_at_period_end": true,
		"current_period_start": %d,
		"current_period_end": %d
	}`, start.Unix(), end.Unix())

	payload := eventJSON("customer.subscription.updated", object)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var updated subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&updated).Error)
	assert.Equal(t, subscriptions.StatusPastDue, updated.Status)
	assert.True(t, updated.CancelAtPeriodEnd)
	require.NotNil(t, updated.CurrentPeriodEnd)
	assert.Equal(t, end.Unix(), updated.CurrentPeriodEnd.Unix())
}

func TestWebhookSubscriptionUpdatedUnmatchedIsAcknowledged(t *testing.T) {
	r, _ := setupTest(t)
	seedRestaurantWithTrial(t)

	object := `{"id":"sub_unknown","object":"subscription","status":"active","current_period_start":1,"current_period_end":2}`
	payload := eventJSON("customer.subscription.updated", object)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSubscriptionDeletedCancels(t *testing.T) {
	r, _ := setupTest(t)
	_, restaurant, sub := seedRestaurantWithTrial(t)

	require.NoError(t, database.DB.Model(&sub).Updates(map[string]interface{}{
		"stripe_subscription_id": "sub_123",
		"plan":                   subscriptions.PlanPremium,
		"status":                 subscriptions.StatusActive,
	}).Error)

	payload := eventJSON("customer.subscription.deleted", `{"id":"sub_123","object":"subscription","status":"canceled"}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var updated subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&updated).Error)
	assert.Equal(t, subscriptions.StatusCanceled, updated.Status)
}

func TestWebhookInvoicePaymentFailedMarksPastDue(t *testing.T) {
	r, _ := setupTest(t)
	_, restaurant, sub := seedRestaurantWithTrial(t)

	require.NoError(t, database.DB.Model(&sub).Updates(map[string]interface{}{
		"stripe_customer_id": "cus_123",
		"plan":               subscriptions.PlanPremium,
		"status":             subscriptions.StatusActive,
	}).Error)

	payload := eventJSON("invoice.payment_failed", `{"id":"in_123","object":"invoice","customer":"cus_123"}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var updated subscriptions.Subscription
	require.NoError(t, database.DB.Where("restaurant_id = ?", restaurant.ID).First(&updated).Error)
	assert.Equal(t, subscriptions.StatusPastDue, updated.Status)
}

func TestWebhookIgnoresUnknownEventTypes(t *testing.T) {
	r, _ := setupTest(t)
	seedRestaurantWithTrial(t)

	payload := eventJSON("customer.created", `{"id":"cus_new","object":"customer"}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
}
