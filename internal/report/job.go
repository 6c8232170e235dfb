// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"time"

	"github.com/tomtom215/orderdesk/internal/models"
)

// Job is the queue message asking a worker to generate one report. The
// report row is the source of truth; the job only carries its id.
type Job struct {
	ReportID    string    `json:"reportId"`
	Type        Type      `json:"type"`
	Format      Format    `json:"format"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

// JobPublisher enqueues generation jobs. Delivery is at least once; the
// worker's conditional claim makes redelivery harmless.
type JobPublisher interface {
	PublishJob(ctx context.Context, job Job) error
}

// Permissions decides which report types a role may generate.
type Permissions interface {
	CanGenerate(role models.Role, reportType string) (bool, error)
}
