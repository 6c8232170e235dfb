// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Rendered is a dataset serialized into one file format.
type Rendered struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Renderer serializes a dataset.
type Renderer interface {
	Render(ctx context.Context, ds *Dataset) (*Rendered, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, ds *Dataset) (*Rendered, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, ds *Dataset) (*Rendered, error) {
	return f(ctx, ds)
}

// DefaultRenderers maps every format to its renderer.
func DefaultRenderers() map[Format]Renderer {
	return map[Format]Renderer{
		FormatCSV:   RendererFunc(renderCSV),
		FormatJSON:  RendererFunc(renderJSON),
		FormatExcel: RendererFunc(renderExcel),
		FormatPDF:   RendererFunc(renderPDF),
		FormatPNG:   RendererFunc(renderPNG),
	}
}

// formatCell renders a cell as text for CSV and PDF output.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// numericValue returns v as float64 when it is a number.
func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case decimal.Decimal:
		return x.InexactFloat64(), true
	default:
		return 0, false
	}
}

// jsonCell converts a cell into a JSON-friendly value. Decimals keep two
// places as strings so money is not rounded by float parsing.
func jsonCell(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
