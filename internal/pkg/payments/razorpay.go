package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient talks to the Razorpay REST API with key id/secret basic
// auth. It covers the two calls the platform needs: order creation at
// checkout and refund creation.
type RazorpayClient struct {
	http *resty.Client
}

// NewRazorpayClient builds a client from a configured provider entry.
func NewRazorpayClient(p *Provider) (*RazorpayClient, error) {
	if !p.Configured() {
		return nil, ErrProviderNotConfigured
	}
	client := resty.New().
		SetBaseURL(razorpayBaseURL).
		SetBasicAuth(p.KeyID, p.KeySecret).
		SetTimeout(20 * time.Second)
	return &RazorpayClient{http: client}, nil
}

// ProviderOrder is the provider's order object created at checkout.
type ProviderOrder struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers a checkout attempt with the provider and returns
// its order id, which keys the payment record for the webhook and
// verification paths.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*ProviderOrder, error) {
	var out ProviderOrder
	var apiErr razorpayError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   amountCents,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create order: %s (%s)", apiErr.Error.Description, apiErr.Error.Code)
	}
	return &out, nil
}

type razorpayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// CreateRefund issues a (partial) refund against a captured payment.
func (c *RazorpayClient) CreateRefund(ctx context.Context, providerPaymentID string, amountCents int64, currency string) (*ProviderRefund, error) {
	var out razorpayRefund
	var apiErr razorpayError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount": amountCents,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/payments/%s/refund", providerPaymentID))
	if err != nil {
		return nil, fmt.Errorf("razorpay create refund: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create refund: %s (%s)", apiErr.Error.Description, apiErr.Error.Code)
	}

	currencyOut := out.Currency
	if currencyOut == "" {
		currencyOut = currency
	}
	return &ProviderRefund{
		ID:          out.ID,
		PaymentID:   out.PaymentID,
		AmountCents: out.Amount,
		Currency:    currencyOut,
		Status:      out.Status,
	}, nil
}
