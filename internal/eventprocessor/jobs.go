// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/report"
)

// Message metadata keys.
const (
	metadataReportID   = "report_id"
	metadataReportType = "report_type"
	metadataRequestID  = "request_id"
)

// JobPublisher serializes report jobs onto the queue topic.
type JobPublisher struct {
	publisher *Publisher
	topic     string
}

// NewJobPublisher publishes jobs to topic through p.
func NewJobPublisher(p *Publisher, topic string) *JobPublisher {
	return &JobPublisher{publisher: p, topic: topic}
}

// PublishJob implements report.JobPublisher.
func (p *JobPublisher) PublishJob(ctx context.Context, job report.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal report job: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataReportID, job.ReportID)
	msg.Metadata.Set(metadataReportType, string(job.Type))
	if rid := logging.RequestIDFromContext(ctx); rid != "" {
		msg.Metadata.Set(metadataRequestID, rid)
	}

	if err := p.publisher.Publish(ctx, p.topic, msg); err != nil {
		return fmt.Errorf("publish report job %s: %w", job.ReportID, err)
	}
	return nil
}
