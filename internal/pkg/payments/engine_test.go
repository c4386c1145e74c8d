package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// fakeRepo is an in-memory Repository. Transaction runs the callback
// directly; the engine's semantics under test do not depend on rollback.
type fakeRepo struct {
	mu      sync.Mutex
	orders  map[uint]*models.Order
	records map[uint]*models.PaymentRecord
	refunds map[string]*models.Refund

	nextRecordID     uint
	nextRefundID     uint
	updateFieldCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:  map[uint]*models.Order{},
		records: map[uint]*models.PaymentRecord{},
		refunds: map[string]*models.Refund{},
	}
}

func (f *fakeRepo) addOrder(o *models.Order) *models.Order {
	f.orders[o.ID] = o
	return o
}

func (f *fakeRepo) addRecord(rec *models.PaymentRecord) *models.PaymentRecord {
	if rec.ID == 0 {
		f.nextRecordID++
		rec.ID = f.nextRecordID
	}
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) FindOrderByID(orderID uint) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) FindOrderByShortID(shortID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ShortID == shortID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeRepo) FindPaymentByProviderOrderID(providerOrderID string) (*models.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ProviderOrderID == providerOrderID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeRepo) FindPaymentByProviderPaymentID(providerPaymentID string) (*models.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ProviderPaymentID != nil && *rec.ProviderPaymentID == providerPaymentID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeRepo) FindCapturedPaymentByOrderID(orderID uint) (*models.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.PaymentRecord
	for _, rec := range f.records {
		if rec.OrderID == orderID && rec.ProviderPaymentID != nil {
			if best == nil || rec.ID > best.ID {
				best = rec
			}
		}
	}
	if best == nil {
		return nil, ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeRepo) CreatePaymentRecord(rec *models.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.records {
		if existing.ProviderOrderID == rec.ProviderOrderID {
			return fmt.Errorf("duplicate provider_order_id %s", rec.ProviderOrderID)
		}
	}
	f.addRecord(rec)
	return nil
}

func (f *fakeRepo) UpdatePaymentFields(recordID uint, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[recordID]
	if !ok {
		return ErrRecordNotFound
	}
	f.updateFieldCalls++
	for key, value := range fields {
		switch key {
		case "provider_payment_id":
			v := value.(string)
			rec.ProviderPaymentID = &v
		case "provider_signature":
			v := value.(string)
			rec.ProviderSignature = &v
		case "amount_received_cents":
			v := value.(int64)
			rec.AmountReceivedCents = &v
		case "refund_id":
			v := value.(string)
			rec.RefundID = &v
		case "last_error":
			rec.LastError = value.(datatypes.JSON)
		}
	}
	return nil
}

func (f *fakeRepo) UpdateOrderStatusConditional(orderID uint, target string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	if !CanTransition(o.PaymentStatus, target) {
		return false, nil
	}
	o.PaymentStatus = target
	now := time.Now()
	switch target {
	case models.PaymentStatusPaymentReceived:
		o.PaidAt = &now
	case models.PaymentStatusRefunded:
		o.RefundedAt = &now
	case models.PaymentStatusCancelled:
		o.CancelledAt = &now
	}
	return true, nil
}

func (f *fakeRepo) SumRefunds(paymentRecordID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, r := range f.refunds {
		if r.PaymentRecordID == paymentRecordID {
			total += r.AmountCents
		}
	}
	return total, nil
}

func (f *fakeRepo) CreateRefundIfNotExists(r *models.Refund) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.refunds[r.ProviderRefundID]; exists {
		return false, nil
	}
	f.nextRefundID++
	r.ID = f.nextRefundID
	f.refunds[r.ProviderRefundID] = r
	return true, nil
}

// fakeLedger is an in-memory DedupLedger.
type fakeLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: map[string]bool{}}
}

func (l *fakeLedger) key(eventType, entityID string) string {
	return eventType + "|" + entityID
}

func (l *fakeLedger) Seen(ctx context.Context, eventType, entityID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[l.key(eventType, entityID)], nil
}

func (l *fakeLedger) Mark(ctx context.Context, eventType, entityID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[l.key(eventType, entityID)] = true
	return nil
}

// fakeRefundClient records refund calls and hands out sequential refund ids.
type fakeRefundClient struct {
	calls int
	err   error
}

func (c *fakeRefundClient) CreateRefund(ctx context.Context, providerPaymentID string, amountCents int64, currency string) (*ProviderRefund, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &ProviderRefund{
		ID:          fmt.Sprintf("rfnd_%d", c.calls),
		PaymentID:   providerPaymentID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      "processed",
	}, nil
}

func newTestEngine() (*Engine, *fakeRepo, *fakeLedger) {
	repo := newFakeRepo()
	ledger := newFakeLedger()
	return NewEngine(repo, ledger), repo, ledger
}

func capturedPayload(paymentID, providerOrderID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"currency":"INR","status":"captured"}}}}`, paymentID, providerOrderID, amount))
}

func failedPayload(paymentID, providerOrderID string) []byte {
	return []byte(fmt.Sprintf(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"error_code":"BAD_REQUEST_ERROR","error_description":"Payment declined by bank","error_source":"bank","error_step":"payment_authorization","error_reason":"payment_declined"}}}}`, paymentID, providerOrderID))
}

func refundPayload(refundID, paymentID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"refund.processed","payload":{"refund":{"entity":{"id":%q,"payment_id":%q,"amount":%d,"currency":"INR","status":"processed"}}}}`, refundID, paymentID, amount))
}

func orderPaidPayload(providerOrderID string, amountPaid int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"order.paid","payload":{"order":{"entity":{"id":%q,"amount_paid":%d,"status":"paid"}}}}`, providerOrderID, amountPaid))
}

func mustParse(raw []byte) *WebhookEvent {
	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		panic(err)
	}
	return ev
}
