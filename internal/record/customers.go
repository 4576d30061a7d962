package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/agirodo/cadastro/internal/fault"
	"github.com/jackc/pgx/v5"
)

// ListCustomers returns every customer ordered by id.
func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.queryCustomers(ctx,
		`SELECT id, name, email, phone FROM customers ORDER BY id`)
}

// SearchCustomersByName returns customers whose name contains term,
// case-insensitively, ordered by name.
func (s *Store) SearchCustomersByName(ctx context.Context, term string) ([]Customer, error) {
	return s.queryCustomers(ctx,
		`SELECT id, name, email, phone FROM customers WHERE name ILIKE $1 ORDER BY name`,
		"%"+term+"%")
}

// GetCustomer returns one customer by id.
func (s *Store) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "customer %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts a customer and returns the store-assigned id.
func (s *Store) CreateCustomer(ctx context.Context, name, email string, phone *string) (int, error) {
	var id int
	err := s.db.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone) VALUES ($1, $2, $3) RETURNING id`,
		name, email, phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}
	return id, nil
}

// UpdateCustomer rewrites name, email, and phone for an existing customer.
func (s *Store) UpdateCustomer(ctx context.Context, id int, name, email string, phone *string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE customers SET name = $1, email = $2, phone = $3 WHERE id = $4`,
		name, email, phone, id)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "customer %d not found", id)
	}
	return nil
}

// DeleteCustomer removes a customer. That customer's orders go with it via
// the ON DELETE CASCADE on orders.customer_id.
func (s *Store) DeleteCustomer(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "customer %d not found", id)
	}
	return nil
}

func (s *Store) queryCustomers(ctx context.Context, sql string, args ...any) ([]Customer, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
