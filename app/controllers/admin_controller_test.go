package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

func TestClassifyQueueKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"job:abc-123", "job"},
		{"job_queue", "queue"},
		{"job_processing", "queue"},
		{"webhook:dedup:payment.captured:pay_1", "dedup_marker"},
		{"payments:counters:webhooks_received", "counter"},
		{"session:xyz", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyQueueKey(tt.key), tt.key)
	}
}

func TestTicketAdmissible(t *testing.T) {
	tests := []struct {
		name          string
		ticketStatus  string
		paymentStatus string
		want          bool
	}{
		{"valid ticket on paid order", models.TicketStatusValid, models.PaymentStatusPaymentReceived, true},
		{"partial refund keeps tickets", models.TicketStatusValid, models.PaymentStatusPartiallyRefunded, true},
		{"full refund voids tickets", models.TicketStatusValid, models.PaymentStatusRefunded, false},
		{"cancelled order voids tickets", models.TicketStatusValid, models.PaymentStatusCancelled, false},
		{"revoked ticket", models.TicketStatusRevoked, models.PaymentStatusPaymentReceived, false},
		{"redeemed ticket", models.TicketStatusRedeemed, models.PaymentStatusPaymentReceived, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ticketAdmissible(tt.ticketStatus, tt.paymentStatus))
		})
	}
}
