// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import "errors"

// ErrInvalidFilter is returned for malformed query filters.
var ErrInvalidFilter = errors.New("invalid audit filter")
