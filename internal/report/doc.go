// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package report implements asynchronous report generation.

# Lifecycle

Manager.Create validates a request, checks the role permission, persists the
report as PENDING and publishes a Job. It returns at once; callers poll.

A worker calls Manager.Generate for each delivered Job:

	PENDING --claim--> GENERATING --+--> COMPLETED (artifact stored)
	                                +--> FAILED    (errorMessage set)

The claim is a conditional store write, so a job delivered twice, or to two
workers, is generated once. COMPLETED and FAILED are terminal; EXPIRED is
part of the vocabulary but nothing moves a report there.

Manager.Recover re-publishes PENDING reports and fails GENERATING reports
that outlived twice the generation timeout. Run it when workers start.

# Datasets and Rendering

Each Type has a Builder producing a Dataset from the catalog or the audit
trail. Each Format has a Renderer:

  - CSV: encoding/csv
  - JSON: goccy/go-json
  - EXCEL: excelize
  - PDF: fpdf table
  - PNG: bar chart of the first numeric column (imaging)

# Access

A report is visible to its owner, to listed roles and users, and to
everyone when public. Soft-deleted reports are visible to nobody. Missing
and forbidden reports both surface as ErrNotFound. Only the owner may
change access or delete.

# Recurrence

Recurring reports get a nextGeneration at creation (see NextGeneration).
It is computed, not acted on; DueRecurring lists what an external trigger
would pick up.
*/
package report
