package billing

import (
	"github.com/stripe/stripe-go/v75"
)

// Provider is the thin surface of the payment processor the lifecycle
// handlers depend on. The default Client talks to Stripe; tests swap in a
// fake so no network calls happen.
type Provider interface {
	CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	ListInvoices(customerID string, limit int64) ([]*stripe.Invoice, error)
}

var Client Provider = &stripeClient{}
