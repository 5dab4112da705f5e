package edge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/orders"
)

type fakeMethods struct {
	enabled map[string]bool
}

func (f *fakeMethods) PaymentMethodEnabled(ctx context.Context, method string) bool {
	return f.enabled[method]
}

func newPaymentFixture(t *testing.T) (*PaymentService, *orders.MemoryRepository, time.Time) {
	t.Helper()
	repo := orders.NewMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewPaymentService(repo, &fakeMethods{enabled: map[string]bool{"zaincash": true}})
	svc.now = func() time.Time { return now }

	require.NoError(t, repo.Insert(context.Background(), &orders.Order{
		ID:     "order-1",
		Total:  25000,
		Status: orders.StatusPending,
	}))
	return svc, repo, now
}

func validRequest(now time.Time) PaymentRequest {
	return PaymentRequest{
		PaymentMethod: "zaincash",
		PaymentData:   PaymentData{Timestamp: now.Add(-time.Minute)},
		OrderData:     OrderData{OrderID: "order-1", Total: 25000},
	}
}

func TestPaymentService_Success(t *testing.T) {
	svc, repo, now := newPaymentFixture(t)

	result := svc.Process(context.Background(), validRequest(now))

	assert.True(t, result.Success)
	assert.Equal(t, MsgPaymentAccepted, result.Message)
	assert.NotEmpty(t, result.TransactionID)

	order, err := repo.Get(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, order.Processed)
	assert.Equal(t, orders.StatusPaid, order.Status)
	assert.Equal(t, result.TransactionID, order.TransactionID)
}

func TestPaymentService_MethodDisabled(t *testing.T) {
	svc, _, now := newPaymentFixture(t)

	req := validRequest(now)
	req.PaymentMethod = "visa"
	result := svc.Process(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgMethodDisabled, result.Message)
	assert.Empty(t, result.TransactionID)
}

func TestPaymentService_ReplayProtection(t *testing.T) {
	_, _, now := newPaymentFixture(t)

	tests := []struct {
		name      string
		timestamp time.Time
		wantMsg   string
	}{
		{"older than five minutes", now.Add(-6 * time.Minute), MsgRequestExpired},
		{"zero timestamp", time.Time{}, MsgRequestExpired},
		{"far future timestamp", now.Add(10 * time.Minute), MsgRequestExpired},
		{"just inside the window", now.Add(-4 * time.Minute), MsgPaymentAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newPaymentFixture(t)
			req := validRequest(now)
			req.PaymentData.Timestamp = tt.timestamp
			result := svc.Process(context.Background(), req)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}
}

func TestPaymentService_OrderNotFound(t *testing.T) {
	svc, _, now := newPaymentFixture(t)

	req := validRequest(now)
	req.OrderData.OrderID = "missing"
	result := svc.Process(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgOrderNotFound, result.Message)
}

func TestPaymentService_AlreadyProcessed(t *testing.T) {
	svc, repo, now := newPaymentFixture(t)
	_, err := repo.MarkProcessed(context.Background(), "order-1", "tx-prior")
	require.NoError(t, err)

	result := svc.Process(context.Background(), validRequest(now))

	assert.False(t, result.Success)
	assert.Equal(t, MsgAlreadyProcessed, result.Message)
}

func TestPaymentService_AmountMismatch(t *testing.T) {
	_, _, now := newPaymentFixture(t)

	tests := []struct {
		name    string
		total   float64
		wantMsg string
	}{
		{"short by one unit", 24999, MsgAmountMismatch},
		{"within tolerance", 25000.005, MsgPaymentAccepted},
		{"just over tolerance", 25000.02, MsgAmountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newPaymentFixture(t)
			req := validRequest(now)
			req.OrderData.Total = tt.total
			result := svc.Process(context.Background(), req)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}
}
