package orders

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/cart"
)

var ErrNotFound = errors.New("order not found")

// Order statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Order is a placed order. Items are the cart's priced lines snapshotted at
// checkout time.
type Order struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	Address       string            `json:"address"`
	Items         []cart.PricedItem `json:"items"`
	Total         int               `json:"total"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Processed     bool              `json:"processed"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Repository stores orders. Implementations must make MarkProcessed atomic:
// only the first call for an order succeeds.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)

	// MarkProcessed flips the order to paid with the given transaction ID.
	// Returns false when the order was already processed.
	MarkProcessed(ctx context.Context, id, transactionID string) (bool, error)

	UpdateStatus(ctx context.Context, id, status string) error
}
