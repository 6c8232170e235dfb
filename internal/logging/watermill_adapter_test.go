// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewWatermillAdapterWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	a.With(watermill.LogFields{"topic": "reports.generate"}).
		Error("handler failed", errors.New("boom"), watermill.LogFields{"attempt": 2})
	a.Info("router running", nil)

	out := buf.String()
	for _, want := range []string{
		`"topic":"reports.generate"`,
		`"attempt":2`,
		`"error":"boom"`,
		"router running",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
