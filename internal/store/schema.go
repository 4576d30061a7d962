package store

import (
	"context"
	"fmt"
)

// schemaDDL creates every table the application needs. All statements are
// idempotent so startup against an existing database is a no-op.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
    id       SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    password VARCHAR(100) NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
    id    SERIAL PRIMARY KEY,
    name  VARCHAR(100) NOT NULL,
    email VARCHAR(100) UNIQUE NOT NULL,
    phone VARCHAR(20)
);

CREATE TABLE IF NOT EXISTS orders (
    id          SERIAL PRIMARY KEY,
    customer_id INTEGER REFERENCES customers(id) ON DELETE CASCADE,
    order_date  DATE NOT NULL DEFAULT CURRENT_DATE,
    item        VARCHAR(100),
    amount      DECIMAL(10, 2)
);

CREATE TABLE IF NOT EXISTS raw_imports (
    id      SERIAL PRIMARY KEY,
    payload JSONB,
    status  VARCHAR(20) NOT NULL DEFAULT 'NEW'
);

CREATE TABLE IF NOT EXISTS log_entries (
    id        SERIAL PRIMARY KEY,
    logged_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    level     VARCHAR(10) NOT NULL,
    message   TEXT NOT NULL
);

-- Staging area: candidate rows quarantined per raw_imports batch until an
-- operator confirms promotion. batch_id is the raw_imports id.
CREATE TABLE IF NOT EXISTS staged_customers (
    batch_id INTEGER NOT NULL,
    id       INTEGER NOT NULL,
    name     VARCHAR(100) NOT NULL,
    email    VARCHAR(100) NOT NULL,
    phone    VARCHAR(20),
    PRIMARY KEY (batch_id, id)
);

CREATE TABLE IF NOT EXISTS staged_orders (
    batch_id    INTEGER NOT NULL,
    id          INTEGER NOT NULL,
    customer_id INTEGER,
    order_date  DATE,
    item        VARCHAR(100),
    amount      DECIMAL(10, 2),
    PRIMARY KEY (batch_id, id)
);
`

// seedUserSQL inserts the default operator account used by the login
// screen. Existing accounts are left untouched.
const seedUserSQL = `
INSERT INTO users (username, password) VALUES ($1, $2)
ON CONFLICT (username) DO NOTHING`

// Init creates the schema and seeds the default login inside one
// transaction.
func Init(ctx context.Context, db DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema init: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	if _, err := tx.Exec(ctx, seedUserSQL, "admin", "admin123"); err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema init: %w", err)
	}
	return nil
}
