// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

func renderCSV(_ context.Context, ds *Dataset) (*Rendered, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return &Rendered{Data: buf.Bytes(), ContentType: "text/csv; charset=utf-8", Extension: "csv"}, nil
}

type jsonDocument struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Columns     []string         `json:"columns"`
	Rows        []map[string]any `json:"rows"`
	RecordCount int              `json:"recordCount"`
}

func renderJSON(_ context.Context, ds *Dataset) (*Rendered, error) {
	doc := jsonDocument{
		Title:       ds.Title,
		GeneratedAt: ds.GeneratedAt,
		Columns:     ds.Columns,
		Rows:        make([]map[string]any, 0, len(ds.Rows)),
		RecordCount: len(ds.Rows),
	}
	for _, row := range ds.Rows {
		obj := make(map[string]any, len(ds.Columns))
		for i, col := range ds.Columns {
			if i < len(row) {
				obj[col] = jsonCell(row[i])
			}
		}
		doc.Rows = append(doc.Rows, obj)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json report: %w", err)
	}
	return &Rendered{Data: data, ContentType: "application/json", Extension: "json"}, nil
}
