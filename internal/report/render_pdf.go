// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF table layout in millimetres on landscape A4.
const (
	pdfMargin     = 10.0
	pdfPageWidth  = 297.0
	pdfRowHeight  = 6.0
	pdfMaxCellLen = 40
)

func renderPDF(ctx context.Context, ds *Dataset) (*Rendered, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(ds.Title, true)
	pdf.SetCreator("orderdesk", true)

	colWidth := pdfPageWidth - 2*pdfMargin
	if n := len(ds.Columns); n > 0 {
		colWidth /= float64(n)
	}
	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(221, 228, 238)
		for _, c := range ds.Columns {
			pdf.CellFormat(colWidth, pdfRowHeight, truncate(c), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, ds.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d rows", ds.GeneratedAt.UTC().Format(time.RFC3339), len(ds.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	writeHeader()

	for i, row := range ds.Rows {
		if i%200 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for c := range ds.Columns {
			text := ""
			if c < len(row) {
				text = truncate(formatCell(row[c]))
			}
			align := "L"
			if c < len(row) {
				if _, ok := numericValue(row[c]); ok {
					align = "R"
				}
			}
			pdf.CellFormat(colWidth, pdfRowHeight, text, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Rendered{Data: buf.Bytes(), ContentType: "application/pdf", Extension: "pdf"}, nil
}

func truncate(s string) string {
	if r := []rune(s); len(r) > pdfMaxCellLen {
		return string(r[:pdfMaxCellLen-1]) + "~"
	}
	return s
}
