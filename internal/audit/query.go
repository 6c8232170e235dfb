// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"fmt"

	"github.com/tomtom215/orderdesk/internal/identity"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/models"
)

// EnrichedRecord is a record plus its best-effort actor profile. ActorInfo
// is null when the directory could not resolve the actor.
type EnrichedRecord struct {
	Record
	ActorInfo *identity.Profile `json:"actorInfo"`
}

// QueryResult is one page of enriched records.
type QueryResult struct {
	Records []EnrichedRecord `json:"records"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Pages   int              `json:"pages"`
}

// QueryService answers audit queries. Actor enrichment uses one batched
// directory lookup per page and never fails the query.
type QueryService struct {
	store        Store
	directory    identity.Directory
	defaultLimit int
	maxLimit     int
}

// NewQueryService creates a query service. directory may be nil.
func NewQueryService(store Store, directory identity.Directory, defaultLimit, maxLimit int) *QueryService {
	return &QueryService{
		store:        store,
		directory:    directory,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Query returns one page of matching records, newest first.
func (s *QueryService) Query(ctx context.Context, filter Filter, page models.Page) (*QueryResult, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidFilter)
	}
	page = page.Normalize(s.defaultLimit, s.maxLimit)

	records, total, err := s.store.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}

	profiles := s.resolve(ctx, records)
	enriched := make([]EnrichedRecord, len(records))
	for i := range records {
		enriched[i].Record = records[i]
		if p, ok := profiles[records[i].ActorID]; ok {
			enriched[i].ActorInfo = &p
		}
	}

	return &QueryResult{
		Records: enriched,
		Total:   total,
		Page:    page.Page,
		Limit:   page.Limit,
		Pages:   models.PageCount(total, page.Limit),
	}, nil
}

// Stats aggregates the filtered window.
func (s *QueryService) Stats(ctx context.Context, filter Filter) (*Stats, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidFilter)
	}
	stats, err := s.store.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	return stats, nil
}

func (s *QueryService) resolve(ctx context.Context, records []Record) map[string]identity.Profile {
	if s.directory == nil || len(records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(records))
	for i := range records {
		if records[i].ActorID != "" && records[i].ActorID != models.SystemActor.ID {
			ids = append(ids, records[i].ActorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	profiles, err := s.directory.ResolveActors(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("actors", len(ids)).Msg("Actor enrichment degraded")
	}
	return profiles
}
