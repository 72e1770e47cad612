package repository

import (
	"context"

	"github.com/stocklot/stocklot-backend/pkg/database"
)

const productsDDL = `
CREATE TABLE IF NOT EXISTS products (
	code INTEGER PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	category VARCHAR(100) NOT NULL,
	description TEXT,
	stock_initial INTEGER NOT NULL,
	stock_current INTEGER NOT NULL,
	stock_minimum INTEGER NOT NULL,
	cost NUMERIC(12,2) NOT NULL,
	sale_price NUMERIC(12,2) NOT NULL,
	entry_date DATE NOT NULL,
	expiry_date DATE,
	old_batch_remaining INTEGER NOT NULL DEFAULT 0,
	pending_expiry_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT products_stock_non_negative CHECK (stock_current >= 0)
);

CREATE UNIQUE INDEX IF NOT EXISTS products_name_lower_key ON products (LOWER(name));
`

// Movements have no foreign key to products: the ledger is append-only
// and must survive product deletion.
const movementsDDL = `
CREATE TABLE IF NOT EXISTS movements (
	id UUID PRIMARY KEY,
	date DATE NOT NULL,
	product_code INTEGER NOT NULL,
	type VARCHAR(20) NOT NULL,
	quantity INTEGER NOT NULL,
	actor VARCHAR(255) NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT movements_type_valid CHECK (type IN ('entry', 'exit', 'adjustment'))
);

CREATE INDEX IF NOT EXISTS movements_product_code_idx ON movements (product_code);
`

// Migrations returns the inventory DDL in apply order.
func Migrations() []string {
	return []string{productsDDL, movementsDDL}
}

// Migrate applies the inventory schema.
func Migrate(ctx context.Context, db *database.DB) error {
	for _, ddl := range Migrations() {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
