package billing

import (
	"qrmenu-backend/config"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/customer"
	"github.com/stripe/stripe-go/v75/invoice"
	"github.com/stripe/stripe-go/v75/subscription"
)

type stripeClient struct{}

func (s *stripeClient) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	stripe.Key = config.STRIPE_SECRET_KEY
	return customer.New(params)
}

func (s *stripeClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	stripe.Key = config.STRIPE_SECRET_KEY
	return checkoutsession.New(params)
}

func (s *stripeClient) GetSubscription(id string) (*stripe.Subscription, error) {
	stripe.Key = config.STRIPE_SECRET_KEY
	return subscription.Get(id, nil)
}

func (s *stripeClient) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	stripe.Key = config.STRIPE_SECRET_KEY
	return subscription.Update(id, params)
}

func (s *stripeClient) ListInvoices(customerID string, limit int64) ([]*stripe.Invoice, error) {
	stripe.Key = config.STRIPE_SECRET_KEY

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Limit = stripe.Int64(limit)

	it := invoice.List(params)
	invoices := []*stripe.Invoice{}
	for it.Next() {
		invoices = append(invoices, it.Invoice())
		if int64(len(invoices)) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}
