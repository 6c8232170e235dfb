// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/models"
)

// Dataset is the tabular result of a builder. Cell values are string, int,
// int64, float64, bool, decimal.Decimal or time.Time.
type Dataset struct {
	Title       string
	Columns     []string
	Rows        [][]any
	GeneratedAt time.Time
}

// Builder produces the dataset for one report.
type Builder func(ctx context.Context, src Sources, r *Report) (*Dataset, error)

// Sources are the read-only inputs of dataset builders.
type Sources struct {
	Catalog catalog.Source
	Audit   audit.Store
}

// Parameters are the builder options read from Report.Parameters. Unknown
// keys are ignored.
type Parameters struct {
	GroupBy string `json:"groupBy"` // day, week or month (SALES_SUMMARY)
	Limit   int    `json:"limit"`   // top N rows (PRODUCT_PERFORMANCE)
}

// DefaultBuilders maps every report type to its builder.
func DefaultBuilders() map[Type]Builder {
	return map[Type]Builder{
		TypeOrderAnalytics:     buildOrderAnalytics,
		TypeSalesSummary:       buildSalesSummary,
		TypeProductPerformance: buildProductPerformance,
		TypeInventoryStatus:    buildInventoryStatus,
		TypeCategoryBreakdown:  buildCategoryBreakdown,
		TypeDealerPerformance:  buildDealerPerformance,
		TypeAuditSummary:       buildAuditSummary,
	}
}

// ParseParameters decodes raw; empty input yields defaults.
func ParseParameters(raw []byte) (Parameters, error) {
	p := Parameters{GroupBy: "day"}
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: parameters: %w", ErrValidation, err)
	}
	switch p.GroupBy {
	case "":
		p.GroupBy = "day"
	case "day", "week", "month":
	default:
		return p, fmt.Errorf("%w: parameters.groupBy must be day, week or month", ErrValidation)
	}
	if p.Limit < 0 {
		return p, fmt.Errorf("%w: parameters.limit must be >= 0", ErrValidation)
	}
	return p, nil
}

// orderFilter maps a report's date range and scope onto a catalog filter.
func orderFilter(r *Report) catalog.OrderFilter {
	f := catalog.OrderFilter{
		Dealers:  r.Scope.Dealers,
		Regions:  r.Scope.Regions,
		Products: r.Scope.Products,
		Channels: r.Scope.Channels,
	}
	if r.DateRange != nil {
		start, end := r.DateRange.Start, r.DateRange.End
		f.Start, f.End = &start, &end
	}
	return f
}

func newDataset(r *Report, columns ...string) *Dataset {
	return &Dataset{
		Title:       fmt.Sprintf("%s (%s)", r.Name, r.Type),
		Columns:     columns,
		GeneratedAt: time.Now().UTC(),
	}
}

func buildOrderAnalytics(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	orders, err := src.Catalog.Orders(ctx, orderFilter(r))
	if err != nil {
		return nil, err
	}
	ds := newDataset(r, "orderId", "createdAt", "dealerId", "region", "channel", "status", "units", "total")
	for i := range orders {
		o := &orders[i]
		ds.Rows = append(ds.Rows, []any{o.ID, o.CreatedAt, o.DealerID, o.Region, o.Channel, string(o.Status), o.Units(), o.Total()})
	}
	return ds, nil
}

type salesBucket struct {
	orders  int
	units   int
	revenue decimal.Decimal
}

func buildSalesSummary(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	params, err := ParseParameters(r.Parameters)
	if err != nil {
		return nil, err
	}
	orders, err := src.Catalog.Orders(ctx, orderFilter(r))
	if err != nil {
		return nil, err
	}

	var keys []string
	buckets := make(map[string]*salesBucket)
	for i := range orders {
		o := &orders[i]
		if o.Status == catalog.OrderCancelled {
			continue
		}
		key := periodKey(o.CreatedAt, params.GroupBy)
		b, ok := buckets[key]
		if !ok {
			b = &salesBucket{revenue: decimal.Zero}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.orders++
		b.units += o.Units()
		b.revenue = b.revenue.Add(o.Total())
	}

	ds := newDataset(r, "period", "orders", "units", "revenue", "averageOrderValue")
	for _, k := range keys {
		b := buckets[k]
		avg := b.revenue.DivRound(decimal.NewFromInt(int64(b.orders)), 2)
		ds.Rows = append(ds.Rows, []any{k, b.orders, b.units, b.revenue, avg})
	}
	return ds, nil
}

// periodKey labels t by its day, ISO week or month. Orders arrive sorted,
// so labels appear in chronological order.
func periodKey(t time.Time, groupBy string) string {
	t = t.UTC()
	switch groupBy {
	case "week":
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

type productTotals struct {
	units   int
	orders  int
	revenue decimal.Decimal
}

// salesByProduct aggregates non-cancelled order lines per product.
func salesByProduct(orders []catalog.Order, scopeProducts []string) map[string]*productTotals {
	allowed := make(map[string]bool, len(scopeProducts))
	for _, id := range scopeProducts {
		allowed[id] = true
	}
	totals := make(map[string]*productTotals)
	for i := range orders {
		o := &orders[i]
		if o.Status == catalog.OrderCancelled {
			continue
		}
		seen := make(map[string]bool)
		for _, l := range o.Lines {
			if len(allowed) > 0 && !allowed[l.ProductID] {
				continue
			}
			t, ok := totals[l.ProductID]
			if !ok {
				t = &productTotals{revenue: decimal.Zero}
				totals[l.ProductID] = t
			}
			t.units += l.Quantity
			t.revenue = t.revenue.Add(l.Amount())
			if !seen[l.ProductID] {
				t.orders++
				seen[l.ProductID] = true
			}
		}
	}
	return totals
}

func buildProductPerformance(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	params, err := ParseParameters(r.Parameters)
	if err != nil {
		return nil, err
	}
	orders, err := src.Catalog.Orders(ctx, orderFilter(r))
	if err != nil {
		return nil, err
	}
	products, err := src.Catalog.Products(ctx, catalog.ProductFilter{IDs: r.Scope.Products})
	if err != nil {
		return nil, err
	}
	totals := salesByProduct(orders, r.Scope.Products)

	type row struct {
		p *catalog.Product
		t *productTotals
	}
	rows := make([]row, 0, len(products))
	for i := range products {
		t := totals[products[i].ID]
		if t == nil {
			t = &productTotals{revenue: decimal.Zero}
		}
		rows = append(rows, row{&products[i], t})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].t.revenue.Cmp(rows[j].t.revenue); c != 0 {
			return c > 0
		}
		return rows[i].p.ID < rows[j].p.ID
	})
	if params.Limit > 0 && len(rows) > params.Limit {
		rows = rows[:params.Limit]
	}

	ds := newDataset(r, "productId", "sku", "name", "category", "unitsSold", "orders", "revenue")
	for _, rw := range rows {
		ds.Rows = append(ds.Rows, []any{rw.p.ID, rw.p.SKU, rw.p.Name, rw.p.Category, rw.t.units, rw.t.orders, rw.t.revenue})
	}
	return ds, nil
}

func buildInventoryStatus(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	products, err := src.Catalog.Products(ctx, catalog.ProductFilter{IDs: r.Scope.Products})
	if err != nil {
		return nil, err
	}
	ds := newDataset(r, "productId", "sku", "name", "category", "stockQuantity", "locations", "lastInventoryUpdate", "unavailable")
	for i := range products {
		p := &products[i]
		var last time.Time
		for _, e := range p.Inventory {
			if e.LastUpdate.After(last) {
				last = e.LastUpdate
			}
		}
		lastCell := any("")
		if !last.IsZero() {
			lastCell = last
		}
		ds.Rows = append(ds.Rows, []any{p.ID, p.SKU, p.Name, p.Category, p.StockQuantity(), len(p.Inventory), lastCell, p.Unavailable})
	}
	return ds, nil
}

func buildCategoryBreakdown(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	orders, err := src.Catalog.Orders(ctx, orderFilter(r))
	if err != nil {
		return nil, err
	}
	products, err := src.Catalog.Products(ctx, catalog.ProductFilter{IDs: r.Scope.Products})
	if err != nil {
		return nil, err
	}
	totals := salesByProduct(orders, r.Scope.Products)

	type categoryTotals struct {
		products int
		units    int
		revenue  decimal.Decimal
	}
	var names []string
	byCategory := make(map[string]*categoryTotals)
	grand := decimal.Zero
	for i := range products {
		p := &products[i]
		c, ok := byCategory[p.Category]
		if !ok {
			c = &categoryTotals{revenue: decimal.Zero}
			byCategory[p.Category] = c
			names = append(names, p.Category)
		}
		c.products++
		if t := totals[p.ID]; t != nil {
			c.units += t.units
			c.revenue = c.revenue.Add(t.revenue)
			grand = grand.Add(t.revenue)
		}
	}
	sort.Strings(names)

	ds := newDataset(r, "category", "products", "unitsSold", "revenue", "revenueSharePct")
	for _, name := range names {
		c := byCategory[name]
		share := decimal.Zero
		if grand.IsPositive() {
			share = c.revenue.Mul(decimal.NewFromInt(100)).DivRound(grand, 2)
		}
		ds.Rows = append(ds.Rows, []any{name, c.products, c.units, c.revenue, share})
	}
	return ds, nil
}

func buildDealerPerformance(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	orders, err := src.Catalog.Orders(ctx, orderFilter(r))
	if err != nil {
		return nil, err
	}
	dealers, err := src.Catalog.Dealers(ctx)
	if err != nil {
		return nil, err
	}

	type dealerTotals struct {
		orders, cancelled, units int
		revenue                  decimal.Decimal
	}
	totals := make(map[string]*dealerTotals)
	for i := range orders {
		o := &orders[i]
		t, ok := totals[o.DealerID]
		if !ok {
			t = &dealerTotals{revenue: decimal.Zero}
			totals[o.DealerID] = t
		}
		if o.Status == catalog.OrderCancelled {
			t.cancelled++
			continue
		}
		t.orders++
		t.units += o.Units()
		t.revenue = t.revenue.Add(o.Total())
	}

	ds := newDataset(r, "dealerId", "name", "region", "orders", "cancelledOrders", "units", "revenue")
	for _, d := range dealers {
		if len(r.Scope.Dealers) > 0 && !contains(r.Scope.Dealers, d.ID) {
			continue
		}
		if len(r.Scope.Regions) > 0 && !contains(r.Scope.Regions, d.Region) {
			continue
		}
		t := totals[d.ID]
		if t == nil {
			t = &dealerTotals{revenue: decimal.Zero}
		}
		ds.Rows = append(ds.Rows, []any{d.ID, d.Name, d.Region, t.orders, t.cancelled, t.units, t.revenue})
	}
	return ds, nil
}

// auditPageSize bounds each audit store read while summarising.
const auditPageSize = 500

func buildAuditSummary(ctx context.Context, src Sources, r *Report) (*Dataset, error) {
	if src.Audit == nil {
		return nil, fmt.Errorf("audit store not configured")
	}
	var filter audit.Filter
	if r.DateRange != nil {
		start, end := r.DateRange.Start, r.DateRange.End
		filter.Start, filter.End = &start, &end
	}

	type key struct {
		action   audit.Action
		category audit.Category
		severity audit.Severity
	}
	type totals struct {
		count  int64
		execMs int64
		actors map[string]struct{}
	}
	var keys []key
	groups := make(map[key]*totals)

	for page := 1; ; page++ {
		records, total, err := src.Audit.Query(ctx, filter, models.Page{Page: page, Limit: auditPageSize})
		if err != nil {
			return nil, fmt.Errorf("read audit records: %w", err)
		}
		for i := range records {
			rec := &records[i]
			k := key{rec.Action, rec.Category, rec.Severity}
			g, ok := groups[k]
			if !ok {
				g = &totals{actors: make(map[string]struct{})}
				groups[k] = g
				keys = append(keys, k)
			}
			g.count++
			g.execMs += rec.ExecutionTimeMs
			g.actors[rec.ActorID] = struct{}{}
		}
		if int64(page*auditPageSize) >= total || len(records) == 0 {
			break
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.action != b.action {
			return a.action < b.action
		}
		if a.category != b.category {
			return a.category < b.category
		}
		return a.severity < b.severity
	})

	ds := newDataset(r, "action", "category", "severity", "count", "distinctActors", "avgExecutionTimeMs")
	for _, k := range keys {
		g := groups[k]
		avg := math.Round(float64(g.execMs)/float64(g.count)*100) / 100
		ds.Rows = append(ds.Rows, []any{string(k.action), string(k.category), string(k.severity), g.count, len(g.actors), avg})
	}
	return ds, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
