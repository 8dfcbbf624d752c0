package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Repository interface {
	// CreateOrderTx inserts the order and its line items in one
	// transaction and fills in the generated id.
	CreateOrderTx(ctx context.Context, o *Order) error

	// CreateCompletedOrderTx materializes an already-verified order
	// (redirect reconciliation). The unique payment_reference index makes
	// it idempotent: a concurrent duplicate insert returns the existing
	// row instead of creating a second one.
	CreateCompletedOrderTx(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, orderID uint) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// GetByReference matches either the order number (the initial gateway
	// reference) or a recorded payment_reference.
	GetByReference(ctx context.Context, reference string) (*Order, error)
	FetchOrders(ctx context.Context, userID uint, limit, offset int32) ([]*Order, error)

	MarkPaid(ctx context.Context, orderID uint, reference string) error
	MarkProcessing(ctx context.Context, orderID uint) error
	MarkPaymentFailed(ctx context.Context, orderID uint) error
	UpdateFulfilmentStatus(ctx context.Context, orderID uint, status OrderStatus) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, order_number, total_amount, status, payment_status,
	payment_method, payment_reference, shipping_address, billing_address,
	created_at, updated_at`

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) CreateCompletedOrderTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	shipping, billing, err := marshalAddresses(o)
	if err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, order_number, total_amount, status, payment_status,
			payment_method, payment_reference, shipping_address, billing_address
		) VALUES ($1, $2, $3, 'PROCESSING', 'COMPLETED', $4, $5, $6, $7)
		ON CONFLICT (payment_reference) WHERE payment_reference IS NOT NULL
		DO NOTHING
		RETURNING id
	`,
		o.UserID, o.OrderNumber, o.TotalAmount, o.PaymentMethod,
		o.PaymentReference, shipping, billing,
	).Scan(&o.ID)

	if errors.Is(err, sql.ErrNoRows) {
		// Another caller materialized this reference first.
		return tx.Commit()
	}
	if err != nil {
		return err
	}

	o.Status = StatusProcessing
	o.PaymentStatus = PaymentCompleted

	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}

	return tx.Commit()
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	shipping, billing, err := marshalAddresses(o)
	if err != nil {
		return err
	}

	return tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, order_number, total_amount, status, payment_status,
			payment_method, payment_reference, shipping_address, billing_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		o.UserID, o.OrderNumber, o.TotalAmount, o.Status, o.PaymentStatus,
		o.PaymentMethod, o.PaymentReference, shipping, billing,
	).Scan(&o.ID)
}

func insertItems(ctx context.Context, tx *sql.Tx, o *Order) error {
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, o.ID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func marshalAddresses(o *Order) ([]byte, []byte, error) {
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, nil, err
	}
	billing, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return nil, nil, err
	}
	return shipping, billing, nil
}

func (r *repository) GetByID(ctx context.Context, orderID uint) (*Order, error) {
	return r.getOne(ctx, `WHERE id = $1`, orderID)
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, `WHERE order_number = $1`, orderNumber)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	return r.getOne(ctx, `WHERE order_number = $1 OR payment_reference = $1`, reference)
}

func (r *repository) getOne(ctx context.Context, where string, arg interface{}) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders %s`, orderColumns, where)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}

	items, err := r.fetchItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) fetchItems(ctx context.Context, orderID uint) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (r *repository) FetchOrders(ctx context.Context, userID uint, limit, offset int32) ([]*Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *repository) MarkPaid(ctx context.Context, orderID uint, reference string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'COMPLETED', status = 'PROCESSING',
		    payment_reference = $2, updated_at = now()
		WHERE id = $1
	`, orderID, reference)
	return err
}

func (r *repository) MarkProcessing(ctx context.Context, orderID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'PROCESSING', updated_at = now()
		WHERE id = $1
	`, orderID)
	return err
}

func (r *repository) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	// Guarded so a webhook arriving after completion cannot downgrade.
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'FAILED', updated_at = now()
		WHERE id = $1 AND payment_status = 'PENDING'
	`, orderID)
	return err
}

func (r *repository) UpdateFulfilmentStatus(ctx context.Context, orderID uint, status OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, orderID, status)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o        Order
		ref      sql.NullString
		shipping []byte
		billing  []byte
	)

	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &o.Status,
		&o.PaymentStatus, &o.PaymentMethod, &ref, &shipping, &billing,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if ref.Valid {
		o.PaymentReference = &ref.String
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billing, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode billing address: %w", err)
	}

	return &o, nil
}
