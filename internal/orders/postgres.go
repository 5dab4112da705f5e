package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresRepository stores orders in the orders table. Items are kept as a
// JSON column; the storefront never queries inside them.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_name, customer_email, customer_phone, address,
		                     items, total, status, payment_method, processed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $10)`,
		o.ID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.Address,
		items, o.Total, o.Status, o.PaymentMethod, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	var items []byte
	var transactionID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_name, customer_email, customer_phone, address,
		        items, total, status, payment_method, transaction_id, processed,
		        created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(
		&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Address,
		&items, &o.Total, &o.Status, &o.PaymentMethod, &transactionID, &o.Processed,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.TransactionID = transactionID.String
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &o, nil
}

// MarkProcessed is a single conditional UPDATE, so concurrent payment
// confirmations for the same order cannot both win.
func (r *PostgresRepository) MarkProcessed(ctx context.Context, id, transactionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders
		 SET processed = true, status = $2, transaction_id = $3, updated_at = $4
		 WHERE id = $1 AND processed = false`,
		id, StatusPaid, transactionID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("mark order processed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
