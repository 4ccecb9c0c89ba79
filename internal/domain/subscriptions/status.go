package subscriptions

import "strings"

// NormalizeStatus collapses the Stripe status vocabulary onto the values the
// Subscription model declares. Unknown values pass through unchanged.
func NormalizeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due":
		return StatusPastDue
	case "unpaid":
		return StatusUnpaid
	case "canceled", "incomplete_expired":
		return StatusCanceled
	case "incomplete":
		return StatusIncomplete
	default:
		return strings.TrimSpace(s)
	}
}

// CycleFromInterval derives the billing cycle from a Stripe recurring
// interval. Anything that is not yearly bills monthly.
func CycleFromInterval(interval string) string {
	if interval == "year" {
		return CycleYearly
	}
	return CycleMonthly
}
