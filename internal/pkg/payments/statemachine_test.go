package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

var allStatuses = models.PaymentStatuses

func TestPaymentStatusesComplete(t *testing.T) {
	assert.ElementsMatch(t, []string{
		models.PaymentStatusAwaitingPayment,
		models.PaymentStatusPaymentReceived,
		models.PaymentStatusPaymentFailed,
		models.PaymentStatusPartiallyRefunded,
		models.PaymentStatusRefunded,
		models.PaymentStatusCancelled,
	}, models.PaymentStatuses)
}

func TestCanTransitionHappyPath(t *testing.T) {
	assert.True(t, CanTransition(models.PaymentStatusAwaitingPayment, models.PaymentStatusPaymentReceived))
	assert.True(t, CanTransition(models.PaymentStatusAwaitingPayment, models.PaymentStatusPaymentFailed))
	assert.True(t, CanTransition(models.PaymentStatusAwaitingPayment, models.PaymentStatusCancelled))
	assert.True(t, CanTransition(models.PaymentStatusPaymentReceived, models.PaymentStatusPartiallyRefunded))
	assert.True(t, CanTransition(models.PaymentStatusPaymentReceived, models.PaymentStatusRefunded))
	assert.True(t, CanTransition(models.PaymentStatusPartiallyRefunded, models.PaymentStatusRefunded))
}

func TestCanTransitionRetryAfterFailure(t *testing.T) {
	assert.True(t, CanTransition(models.PaymentStatusPaymentFailed, models.PaymentStatusAwaitingPayment))
	assert.True(t, CanTransition(models.PaymentStatusPaymentFailed, models.PaymentStatusPaymentReceived))
}

func TestCanTransitionRejectsRegressions(t *testing.T) {
	assert.False(t, CanTransition(models.PaymentStatusPaymentReceived, models.PaymentStatusPaymentFailed))
	assert.False(t, CanTransition(models.PaymentStatusPaymentReceived, models.PaymentStatusAwaitingPayment))
	assert.False(t, CanTransition(models.PaymentStatusPartiallyRefunded, models.PaymentStatusPaymentReceived))
	assert.False(t, CanTransition(models.PaymentStatusAwaitingPayment, models.PaymentStatusRefunded))
	assert.False(t, CanTransition(models.PaymentStatusAwaitingPayment, models.PaymentStatusPartiallyRefunded))
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, terminal := range []string{models.PaymentStatusRefunded, models.PaymentStatusCancelled} {
		for _, target := range allStatuses {
			assert.False(t, CanTransition(terminal, target), "expected no edge %s -> %s", terminal, target)
		}
	}
}

func TestNoSelfTransitions(t *testing.T) {
	for _, status := range allStatuses {
		assert.False(t, CanTransition(status, status), "expected no self edge for %s", status)
	}
}

func TestAllowedSourcesUnknownTarget(t *testing.T) {
	assert.Empty(t, AllowedSources("shipped"))
	assert.Empty(t, AllowedSources(""))
}

func TestIsTerminalPaymentStatus(t *testing.T) {
	assert.True(t, models.IsTerminalPaymentStatus(models.PaymentStatusRefunded))
	assert.True(t, models.IsTerminalPaymentStatus(models.PaymentStatusCancelled))
	assert.False(t, models.IsTerminalPaymentStatus(models.PaymentStatusAwaitingPayment))
	assert.False(t, models.IsTerminalPaymentStatus(models.PaymentStatusPartiallyRefunded))
}
