package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/agirodo/cadastro/internal/fault"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ListOrders returns every order with its customer's name, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, c.id, c.name, o.order_date, o.item, o.amount
		FROM orders o
		JOIN customers c ON o.customer_id = c.id
		ORDER BY o.order_date DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.OrderDate, &o.Item, &o.Amount); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrder returns one order by id.
func (s *Store) GetOrder(ctx context.Context, id int) (*Order, error) {
	var o Order
	err := s.db.QueryRow(ctx,
		`SELECT id, customer_id, order_date, item, amount FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Item, &o.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "order %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// CreateOrder inserts an order for an existing customer and returns the
// store-assigned id. The customer must exist up front so the operator gets
// a clear message instead of a foreign key violation.
func (s *Store) CreateOrder(ctx context.Context, customerID int, item *string, amount *decimal.Decimal) (int, error) {
	var exists int
	err := s.db.QueryRow(ctx, `SELECT id FROM customers WHERE id = $1`, customerID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fault.New(fault.KindNotFound, "customer %d not found", customerID)
	}
	if err != nil {
		return 0, fmt.Errorf("check customer: %w", err)
	}

	var id int
	err = s.db.QueryRow(ctx,
		`INSERT INTO orders (customer_id, item, amount) VALUES ($1, $2, $3) RETURNING id`,
		customerID, item, amount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// UpdateOrder rewrites item and amount for an existing order.
func (s *Store) UpdateOrder(ctx context.Context, id int, item *string, amount *decimal.Decimal) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE orders SET item = $1, amount = $2 WHERE id = $3`,
		item, amount, id)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "order %d not found", id)
	}
	return nil
}

// DeleteOrder removes an order.
func (s *Store) DeleteOrder(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "order %d not found", id)
	}
	return nil
}
