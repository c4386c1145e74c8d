package payments

import "github.com/MarcoHuebner/TicketPilot/app/models"

// allowedSources maps a target payment status to the statuses an order may
// hold immediately before the transition. The conditional UPDATE uses this
// as its WHERE predicate, which is the sole serialization point between the
// webhook workers and the browser-side verification path: whichever write's
// predicate matches first wins, the loser affects zero rows.
var allowedSources = map[string][]string{
	models.PaymentStatusPaymentReceived: {
		models.PaymentStatusAwaitingPayment,
		models.PaymentStatusPaymentFailed,
	},
	models.PaymentStatusPaymentFailed: {
		models.PaymentStatusAwaitingPayment,
	},
	models.PaymentStatusAwaitingPayment: {
		// Retry after a failed attempt.
		models.PaymentStatusPaymentFailed,
	},
	models.PaymentStatusPartiallyRefunded: {
		models.PaymentStatusPaymentReceived,
	},
	models.PaymentStatusRefunded: {
		models.PaymentStatusPaymentReceived,
		models.PaymentStatusPartiallyRefunded,
	},
	models.PaymentStatusCancelled: {
		models.PaymentStatusAwaitingPayment,
	},
}

// AllowedSources returns the legal predecessor statuses for a target status.
// An unknown target has no predecessors, so its conditional update can never
// match a row.
func AllowedSources(target string) []string {
	return allowedSources[target]
}

// CanTransition reports whether from -> target is a legal edge of the
// lattice. Terminal statuses (refunded, cancelled) appear in no source list.
func CanTransition(from, target string) bool {
	for _, s := range allowedSources[target] {
		if s == from {
			return true
		}
	}
	return false
}
