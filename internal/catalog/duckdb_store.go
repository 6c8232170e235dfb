// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/orderdesk/internal/database"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
)

// DuckDBStore is the DuckDB-backed catalog. It serves report datasets,
// KPIs, and the availability sweep.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a catalog store over db.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the catalog tables if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS dealers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			region TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			price DECIMAL(18,2) NOT NULL,
			freshness_window_seconds BIGINT NOT NULL DEFAULT 0,
			unavailable BOOLEAN NOT NULL DEFAULT FALSE,
			sweep_iteration BIGINT NOT NULL DEFAULT 0,
			flag_updated_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS inventory_entries (
			product_id TEXT NOT NULL,
			location TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			last_update TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			dealer_id TEXT NOT NULL,
			region TEXT NOT NULL,
			channel TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS order_lines (
			order_id TEXT NOT NULL,
			line_no INTEGER NOT NULL,
			product_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price DECIMAL(18,2) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS product_changes (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			field TEXT NOT NULL,
			old_value BOOLEAN NOT NULL,
			new_value BOOLEAN NOT NULL,
			iteration BIGINT NOT NULL,
			changed_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory_entries(product_id);
		CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at);
		CREATE INDEX IF NOT EXISTS idx_orders_dealer ON orders(dealer_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id);
		CREATE INDEX IF NOT EXISTS idx_product_changes_product ON product_changes(product_id, changed_at)
	`
	if err := database.ExecStatements(ctx, s.db, schema); err != nil {
		return err
	}
	logging.Info().Msg("Catalog tables created/verified")
	return nil
}

// Load inserts the given rows in one transaction.
func (s *DuckDBStore) Load(ctx context.Context, data *SeedData) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog load: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, d := range data.Dealers {
		if _, err = tx.ExecContext(ctx, `INSERT INTO dealers (id, name, region) VALUES (?, ?, ?)`, d.ID, d.Name, d.Region); err != nil {
			return fmt.Errorf("insert dealer %s: %w", d.ID, err)
		}
	}
	for i := range data.Products {
		p := &data.Products[i]
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, sku, name, category, price, freshness_window_seconds, unavailable, sweep_iteration, flag_updated_at)
			VALUES (?, ?, ?, ?, CAST(? AS DECIMAL(18,2)), ?, ?, ?, ?)`,
			p.ID, p.SKU, p.Name, p.Category, p.Price.StringFixed(2), int64(p.FreshnessWindow/time.Second),
			p.Unavailable, p.SweepIteration, p.FlagUpdatedAt,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
		for _, e := range p.Inventory {
			if _, err = tx.ExecContext(ctx, `INSERT INTO inventory_entries (product_id, location, quantity, last_update) VALUES (?, ?, ?, ?)`,
				p.ID, e.Location, e.Quantity, e.LastUpdate.UTC()); err != nil {
				return fmt.Errorf("insert inventory for %s: %w", p.ID, err)
			}
		}
	}
	for i := range data.Orders {
		o := &data.Orders[i]
		if _, err = tx.ExecContext(ctx, `INSERT INTO orders (id, dealer_id, region, channel, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.DealerID, o.Region, o.Channel, string(o.Status), o.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
		for n, l := range o.Lines {
			if _, err = tx.ExecContext(ctx, `INSERT INTO order_lines (order_id, line_no, product_id, quantity, unit_price) VALUES (?, ?, ?, ?, CAST(? AS DECIMAL(18,2)))`,
				o.ID, n, l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2)); err != nil {
				return fmt.Errorf("insert order line %s/%d: %w", o.ID, n, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog load: %w", err)
	}
	return nil
}

// Orders returns matching orders with their lines, oldest first.
func (s *DuckDBStore) Orders(ctx context.Context, filter OrderFilter) (_ []Order, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "orders", time.Since(start), err) }()

	var conds []string
	var args []any
	if filter.Start != nil {
		conds = append(conds, "o.created_at >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conds = append(conds, "o.created_at <= ?")
		args = append(args, filter.End.UTC())
	}
	conds, args = inCondition(conds, args, "o.dealer_id", filter.Dealers)
	conds, args = inCondition(conds, args, "o.region", filter.Regions)
	conds, args = inCondition(conds, args, "o.channel", filter.Channels)
	if len(filter.Products) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM order_lines x WHERE x.order_id = o.id AND x.product_id IN ("+database.Placeholders(len(filter.Products))+"))")
		for _, p := range filter.Products {
			args = append(args, p)
		}
	}

	query := `
		SELECT o.id, o.dealer_id, o.region, o.channel, o.status, o.created_at,
			l.product_id, l.quantity, CAST(l.unit_price AS VARCHAR)
		FROM orders o
		LEFT JOIN order_lines l ON l.order_id = o.id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.created_at, o.id, l.line_no"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var status string
		var productID, unitPrice sql.NullString
		var qty sql.NullInt64
		if err = rows.Scan(&o.ID, &o.DealerID, &o.Region, &o.Channel, &status, &o.CreatedAt, &productID, &qty, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if n := len(orders); n == 0 || orders[n-1].ID != o.ID {
			o.Status = OrderStatus(status)
			orders = append(orders, o)
		}
		if productID.Valid {
			price, perr := decimal.NewFromString(unitPrice.String)
			if perr != nil {
				return nil, fmt.Errorf("order %s: bad unit price %q: %w", o.ID, unitPrice.String, perr)
			}
			last := &orders[len(orders)-1]
			last.Lines = append(last.Lines, OrderLine{ProductID: productID.String, Quantity: int(qty.Int64), UnitPrice: price})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// Products returns matching products with inventory, ordered by id.
func (s *DuckDBStore) Products(ctx context.Context, filter ProductFilter) (_ []Product, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "products", time.Since(start), err) }()

	var conds []string
	var args []any
	conds, args = inCondition(conds, args, "id", filter.IDs)
	conds, args = inCondition(conds, args, "category", filter.Categories)

	query := `
		SELECT id, sku, name, category, CAST(price AS VARCHAR), freshness_window_seconds,
			unavailable, sweep_iteration, flag_updated_at
		FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	products, err := s.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err = s.attachInventory(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product returns one product by id.
func (s *DuckDBStore) Product(ctx context.Context, id string) (*Product, error) {
	products, err := s.Products(ctx, ProductFilter{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return &products[0], nil
}

// Dealers returns every dealer ordered by id.
func (s *DuckDBStore) Dealers(ctx context.Context) ([]Dealer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region FROM dealers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealers: %w", err)
	}
	defer rows.Close()

	var dealers []Dealer
	for rows.Next() {
		var d Dealer
		if err := rows.Scan(&d.ID, &d.Name, &d.Region); err != nil {
			return nil, fmt.Errorf("failed to scan dealer: %w", err)
		}
		dealers = append(dealers, d)
	}
	return dealers, rows.Err()
}

// ScanAvailability returns up to limit availability projections after
// afterID (keyset pagination on id).
func (s *DuckDBStore) ScanAvailability(ctx context.Context, afterID string, limit int) (_ []AvailabilityRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("scan", "products", time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unavailable, freshness_window_seconds
		FROM products
		WHERE id > ?
		ORDER BY id
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	var records []AvailabilityRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec AvailabilityRecord
		var windowSeconds int64
		if err = rows.Scan(&rec.ProductID, &rec.Unavailable, &windowSeconds); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		rec.FreshnessWindow = time.Duration(windowSeconds) * time.Second
		index[rec.ProductID] = len(records)
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	rows.Close()

	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	entries, err := s.db.QueryContext(ctx, `
		SELECT product_id, location, quantity, last_update
		FROM inventory_entries
		WHERE product_id IN (`+database.Placeholders(len(ids))+`)`, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}
	defer entries.Close()

	for entries.Next() {
		var pid string
		var e InventoryEntry
		if err = entries.Scan(&pid, &e.Location, &e.Quantity, &e.LastUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		if i, ok := index[pid]; ok {
			records[i].Entries = append(records[i].Entries, e)
		}
	}
	if err = entries.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}
	return records, nil
}

// UpdateAvailability conditionally flips the flag from old to updated and
// bumps the sweep iteration. ErrFlagConflict means the stored flag moved.
func (s *DuckDBStore) UpdateAvailability(ctx context.Context, id string, old, updated bool, at time.Time) (_ int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "products", time.Since(start), err) }()

	var iteration int64
	err = s.db.QueryRowContext(ctx, `
		UPDATE products
		SET unavailable = ?, sweep_iteration = sweep_iteration + 1, flag_updated_at = ?
		WHERE id = ? AND unavailable = ?
		RETURNING sweep_iteration`, updated, at.UTC(), id, old).Scan(&iteration)
	switch {
	case err == nil:
		return iteration, nil
	case errors.Is(err, sql.ErrNoRows):
		var exists bool
		if qerr := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = ?)`, id).Scan(&exists); qerr != nil {
			return 0, fmt.Errorf("failed to check product %s: %w", id, qerr)
		}
		if !exists {
			return 0, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return 0, ErrFlagConflict
	case database.IsTransactionConflict(err):
		return 0, fmt.Errorf("%w: %w", ErrFlagConflict, err)
	default:
		return 0, fmt.Errorf("failed to update availability of %s: %w", id, err)
	}
}

// AppendChange writes one change-log entry.
func (s *DuckDBStore) AppendChange(ctx context.Context, change FlagChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_changes (id, product_id, field, old_value, new_value, iteration, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		change.ID, change.ProductID, change.Field, change.OldValue, change.NewValue, change.Iteration, change.ChangedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append product change: %w", err)
	}
	return nil
}

// Changes returns the change log for productID (all products when empty),
// oldest first.
func (s *DuckDBStore) Changes(ctx context.Context, productID string) ([]FlagChange, error) {
	query := `SELECT id, product_id, field, old_value, new_value, iteration, changed_at FROM product_changes`
	var args []any
	if productID != "" {
		query += " WHERE product_id = ?"
		args = append(args, productID)
	}
	query += " ORDER BY changed_at, iteration"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product changes: %w", err)
	}
	defer rows.Close()

	var changes []FlagChange
	for rows.Next() {
		var c FlagChange
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Field, &c.OldValue, &c.NewValue, &c.Iteration, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (s *DuckDBStore) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var price string
		var windowSeconds int64
		var flagAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &price, &windowSeconds,
			&p.Unavailable, &p.SweepIteration, &flagAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s: bad price %q: %w", p.ID, price, err)
		}
		p.FreshnessWindow = time.Duration(windowSeconds) * time.Second
		if flagAt.Valid {
			t := flagAt.Time
			p.FlagUpdatedAt = &t
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (s *DuckDBStore) attachInventory(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	index := make(map[string]int, len(products))
	ids := make([]any, len(products))
	for i := range products {
		index[products[i].ID] = i
		ids[i] = products[i].ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, location, quantity, last_update
		FROM inventory_entries
		WHERE product_id IN (`+database.Placeholders(len(ids))+`)
		ORDER BY product_id, location`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid string
		var e InventoryEntry
		if err := rows.Scan(&pid, &e.Location, &e.Quantity, &e.LastUpdate); err != nil {
			return fmt.Errorf("failed to scan inventory: %w", err)
		}
		if i, ok := index[pid]; ok {
			products[i].Inventory = append(products[i].Inventory, e)
		}
	}
	return rows.Err()
}

// inCondition appends "column IN (?,...)" for a non-empty value set.
func inCondition(conds []string, args []any, column string, values []string) ([]string, []any) {
	if len(values) == 0 {
		return conds, args
	}
	conds = append(conds, column+" IN ("+database.Placeholders(len(values))+")")
	for _, v := range values {
		args = append(args, v)
	}
	return conds, args
}
