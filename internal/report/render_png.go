// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Chart geometry in pixels.
const (
	chartWidth   = 960
	chartHeight  = 540
	chartPadding = 40
	chartMaxBars = 60
)

var (
	chartBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	chartAxis       = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	chartBar        = color.NRGBA{R: 52, G: 101, B: 164, A: 255}
	chartNegative   = color.NRGBA{R: 204, G: 0, B: 0, A: 255}
)

// errNoNumericColumn is returned when a dataset has nothing to plot.
var errNoNumericColumn = errors.New("dataset has no numeric column to chart")

// renderPNG draws a bar chart of the first numeric column, one bar per row
// (at most chartMaxBars).
func renderPNG(_ context.Context, ds *Dataset) (*Rendered, error) {
	col := firstNumericColumn(ds)
	if col < 0 && len(ds.Rows) > 0 {
		return nil, errNoNumericColumn
	}

	img := imaging.New(chartWidth, chartHeight, chartBackground)
	plotW := chartWidth - 2*chartPadding
	plotH := chartHeight - 2*chartPadding
	baseline := chartHeight - chartPadding

	img = imaging.Paste(img, imaging.New(plotW, 2, chartAxis), image.Pt(chartPadding, baseline))
	img = imaging.Paste(img, imaging.New(2, plotH, chartAxis), image.Pt(chartPadding-2, chartPadding))

	rows := ds.Rows
	if len(rows) > chartMaxBars {
		rows = rows[:chartMaxBars]
	}
	values := make([]float64, 0, len(rows))
	maxAbs := 0.0
	for _, row := range rows {
		v := 0.0
		if col >= 0 && col < len(row) {
			v, _ = numericValue(row[col])
		}
		values = append(values, v)
		if a := abs(v); a > maxAbs {
			maxAbs = a
		}
	}

	if n := len(values); n > 0 && maxAbs > 0 {
		slot := plotW / n
		barW := max(slot*3/4, 1)
		for i, v := range values {
			h := int(abs(v) / maxAbs * float64(plotH-4))
			if h == 0 {
				continue
			}
			fill := chartBar
			if v < 0 {
				fill = chartNegative
			}
			x := chartPadding + i*slot + (slot-barW)/2
			img = imaging.Paste(img, imaging.New(barW, h, fill), image.Pt(x, baseline-h))
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Rendered{Data: buf.Bytes(), ContentType: "image/png", Extension: "png"}, nil
}

// firstNumericColumn inspects the first row only; builders emit one type
// per column.
func firstNumericColumn(ds *Dataset) int {
	if len(ds.Rows) == 0 {
		return -1
	}
	for i, v := range ds.Rows[0] {
		if _, ok := numericValue(v); ok {
			return i
		}
	}
	return -1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
