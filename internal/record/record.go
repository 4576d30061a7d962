// Package record provides access to the authoritative customer and order
// tables (the Record Store), plus the login check.
//
// Rows promoted out of the staging area land in these tables; the plain
// CRUD operations here are what the terminal menus call directly.
package record

import (
	"time"

	"github.com/agirodo/cadastro/internal/store"
	"github.com/shopspring/decimal"
)

// Customer is one row of the customers table. Phone is optional.
// The JSON field name for phone follows the ingested document shape.
type Customer struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"telefone"`
}

// Order is one row of the orders table. Item and Amount are optional.
// CustomerName is filled by listing joins for display only.
type Order struct {
	ID           int
	CustomerID   int
	CustomerName string
	OrderDate    time.Time
	Item         *string
	Amount       *decimal.Decimal
}

// Store runs queries against the authoritative tables.
type Store struct {
	db store.DB
}

// New creates a record store over the given database handle.
func New(db store.DB) *Store {
	return &Store{db: db}
}
