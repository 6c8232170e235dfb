// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package eventprocessor

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/report"
)

// Generator runs one report generation. A returned error means the job
// could not be processed and should be redelivered; generation failures
// are recorded on the report and return nil.
type Generator interface {
	Generate(ctx context.Context, reportID string) error
}

// NewJobHandler returns the consumer handler for report jobs. Malformed
// payloads are logged and acknowledged since redelivery cannot fix them.
func NewJobHandler(gen Generator, logger zerolog.Logger) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var job report.Job
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed report job")
			return nil
		}
		if job.ReportID == "" {
			logger.Warn().Str("message_uuid", msg.UUID).Msg("Dropping report job without report id")
			return nil
		}

		ctx := msg.Context()
		if rid := msg.Metadata.Get(metadataRequestID); rid != "" {
			ctx = logging.ContextWithRequestID(ctx, rid)
		}

		logger.Debug().Str("report_id", job.ReportID).Str("type", string(job.Type)).Msg("Processing report job")
		return gen.Generate(ctx, job.ReportID)
	}
}
