package record

import (
	"context"
	"fmt"
)

// Snapshot reads every customer and order in id order. The export writer
// serialises the pair as one document, so both sets come from the same
// connection back to back.
func (s *Store) Snapshot(ctx context.Context) ([]Customer, []Order, error) {
	customers, err := s.queryCustomers(ctx,
		`SELECT id, name, email, phone FROM customers ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT o.id, c.id, c.name, o.order_date, o.item, o.amount
		FROM orders o
		JOIN customers c ON o.customer_id = c.id
		ORDER BY o.id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.OrderDate, &o.Item, &o.Amount); err != nil {
			return nil, nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return customers, orders, nil
}
