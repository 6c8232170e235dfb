// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/orderdesk/internal/artifact"
	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/identity"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/validation"
)

// interruptedMessage is recorded on GENERATING reports whose run went stale.
const interruptedMessage = "generation interrupted"

// Deps are the collaborators of a Manager. Directory and Recorder are
// optional.
type Deps struct {
	Store       Store
	Artifacts   artifact.Store
	Sources     Sources
	Permissions Permissions
	Publisher   JobPublisher
	Directory   identity.Directory
	Recorder    audit.Recorder
}

// DownloadMeta is the client context recorded with a download.
type DownloadMeta struct {
	IPAddress string
	UserAgent string
}

// Manager owns the report lifecycle: creation, generation, access and
// soft deletion.
type Manager struct {
	store       Store
	artifacts   artifact.Store
	sources     Sources
	permissions Permissions
	publisher   JobPublisher
	directory   identity.Directory
	recorder    audit.Recorder

	builders  map[Type]Builder
	renderers map[Format]Renderer

	timeout       time.Duration
	retentionDays int
	publicURL     string

	now    func() time.Time
	logger zerolog.Logger
}

// NewManager creates a Manager with the default builders and renderers.
func NewManager(deps Deps, cfg config.ReportsConfig) *Manager {
	registerValidators()

	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	retention := cfg.RetentionDays
	if retention <= 0 {
		retention = 30
	}
	return &Manager{
		store:         deps.Store,
		artifacts:     deps.Artifacts,
		sources:       deps.Sources,
		permissions:   deps.Permissions,
		publisher:     deps.Publisher,
		directory:     deps.Directory,
		recorder:      deps.Recorder,
		builders:      DefaultBuilders(),
		renderers:     DefaultRenderers(),
		timeout:       timeout,
		retentionDays: retention,
		publicURL:     strings.TrimRight(cfg.PublicURL, "/"),
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logging.WithComponent("report-manager"),
	}
}

// Create validates req, persists a PENDING report and enqueues its
// generation. It returns before any generation work starts.
func (m *Manager) Create(ctx context.Context, actor *models.Actor, req *CreateRequest) (*CreateResult, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	allowed, err := m.permissions.CanGenerate(actor.Role, string(req.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate report permission: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: role %s may not generate %s", ErrPermissionDenied, actor.Role, req.Type)
	}

	scope, err := scopeFor(actor, req.Scope)
	if err != nil {
		return nil, err
	}

	now := m.now()
	access := AccessControl{Roles: []models.Role{}, Users: []string{}}
	if req.AccessControl != nil {
		access, err = normalizeAccess(req.AccessControl.Roles, req.AccessControl.Users, req.AccessControl.IsPublic)
		if err != nil {
			return nil, err
		}
	}

	name := actor.Name
	if name == "" {
		name = identity.Name(ctx, m.directory, actor.ID)
	}

	r := &Report{
		ReportID:        uuid.New().String(),
		Name:            req.Name,
		Type:            req.Type,
		Category:        req.Type.Category(),
		GeneratedBy:     actor.ID,
		GeneratedByRole: actor.Role,
		GeneratedByName: name,
		Parameters:      req.Parameters,
		DateRange:       req.DateRange,
		Scope:           scope,
		Format:          req.Format,
		Status:          StatusPending,
		AccessControl:   access,
		Schedule:        Schedule{IsRecurring: req.IsRecurring},
		DownloadHistory: []DownloadEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.IsRecurring {
		next, err := NextGeneration(req.Frequency, now)
		if err != nil {
			return nil, err
		}
		r.Schedule.Frequency = req.Frequency
		r.Schedule.NextGeneration = &next
	}

	if err := m.store.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	// The report stays PENDING on publish failure; Recover republishes it.
	if err := m.publish(ctx, r); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("report_id", r.ReportID).Msg("Failed to enqueue report generation")
	}

	return &CreateResult{ReportID: r.ReportID, Status: r.Status}, nil
}

// scopeFor pins a dealer's reports to the dealer's own orders. A dealer
// actor's ID is its dealer ID; naming any other dealer is denied.
func scopeFor(actor *models.Actor, requested Scope) (Scope, error) {
	if actor.Role != models.RoleDealer {
		return requested, nil
	}
	for _, d := range requested.Dealers {
		if d != actor.ID {
			return requested, fmt.Errorf("%w: dealers may only report on their own orders", ErrPermissionDenied)
		}
	}
	requested.Dealers = []string{actor.ID}
	return requested, nil
}

func (m *Manager) publish(ctx context.Context, r *Report) error {
	if m.publisher == nil {
		return errors.New("no job publisher configured")
	}
	err := m.publisher.PublishJob(ctx, Job{
		ReportID:    r.ReportID,
		Type:        r.Type,
		Format:      r.Format,
		RequestedBy: r.GeneratedBy,
		RequestedAt: m.now(),
	})
	if err != nil {
		return err
	}
	metrics.ReportJobsPublished.Inc()
	return nil
}

// Generate runs one generation job. A report that is missing, deleted or
// not PENDING is skipped without error, so redelivered jobs are harmless.
// The exception is a GENERATING report whose run is stale: its owner is
// gone, so the job fails it instead of leaving it stranded.
// Build and render failures end in FAILED and are not returned; only
// store errors are.
func (m *Manager) Generate(ctx context.Context, reportID string) error {
	r, err := m.store.Get(ctx, reportID)
	if errors.Is(err, ErrNotFound) {
		m.logger.Warn().Str("report_id", reportID).Msg("Skipping job for unknown report")
		metrics.RecordReportJob("unknown", "", "skipped", 0)
		return nil
	}
	if err != nil {
		return err
	}
	if !r.IsDeleted && r.Status == StatusGenerating {
		if started, ok := m.stale(r, m.now()); ok {
			return m.interrupt(ctx, r, started)
		}
	}
	if r.IsDeleted || r.Status != StatusPending {
		m.logger.Debug().Str("report_id", reportID).Str("status", string(r.Status)).Msg("Skipping job for report not pending")
		metrics.RecordReportJob(string(r.Type), string(r.Format), "skipped", 0)
		return nil
	}

	started := m.now()
	err = m.store.Transition(ctx, reportID, StatusPending, Transition{
		To:         StatusGenerating,
		Generation: GenerationDetails{StartedAt: &started},
		At:         started,
	})
	if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
		metrics.RecordReportJob(string(r.Type), string(r.Format), "skipped", 0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim report: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rows, file, genErr := m.produce(genCtx, r)

	// Final writes survive cancellation of the job context.
	writeCtx := context.WithoutCancel(ctx)
	completed := m.now()
	elapsed := completed.Sub(started)
	if genErr != nil {
		return m.fail(writeCtx, r, started, completed, genErr)
	}

	t := Transition{
		To: StatusCompleted,
		Generation: GenerationDetails{
			StartedAt:       &started,
			CompletedAt:     &completed,
			ExecutionTimeMs: elapsed.Milliseconds(),
			RecordCount:     rows,
		},
		File: file,
		At:   completed,
	}
	file.ExpiresAt = completed.AddDate(0, 0, m.retentionDays)
	if r.Schedule.IsRecurring {
		t.LastGenerated = &completed
	}
	if err := m.store.Transition(writeCtx, reportID, StatusGenerating, t); err != nil {
		m.discard(writeCtx, file)
		if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
			// Failed as stale or deleted while we were generating.
			m.logger.Warn().Str("report_id", reportID).Msg("Report left GENERATING before completion, discarding artifact")
			metrics.RecordReportJob(string(r.Type), string(r.Format), "skipped", elapsed)
			return nil
		}
		if ferr := m.fail(writeCtx, r, started, completed, fmt.Errorf("persist completion: %w", err)); ferr != nil {
			return errors.Join(fmt.Errorf("failed to complete report: %w", err), ferr)
		}
		return nil
	}

	metrics.RecordReportJob(string(r.Type), string(r.Format), "completed", elapsed)
	m.logger.Info().
		Str("report_id", reportID).
		Str("type", string(r.Type)).
		Int("records", rows).
		Int64("bytes", file.FileSize).
		Dur("duration", elapsed).
		Msg("Report generated")
	m.audit(writeCtx, r, audit.ActionReportGenerated, audit.SeverityLow, elapsed, "", file)
	return nil
}

// produce builds, renders and stores the artifact. It returns the row count
// and the file details without expiry.
func (m *Manager) produce(ctx context.Context, r *Report) (rows int, file *FileDetails, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("report builder panicked: %v", p)
		}
	}()

	build, ok := m.builders[r.Type]
	if !ok {
		return 0, nil, fmt.Errorf("no builder for report type %s", r.Type)
	}
	renderer, ok := m.renderers[r.Format]
	if !ok {
		return 0, nil, fmt.Errorf("no renderer for format %s", r.Format)
	}

	ds, err := build(ctx, m.sources, r)
	if err != nil {
		return 0, nil, fmt.Errorf("build dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, fmt.Errorf("build dataset: %w", err)
	}
	out, err := renderer.Render(ctx, ds)
	if err != nil {
		return 0, nil, fmt.Errorf("render %s: %w", r.Format, err)
	}

	key := fmt.Sprintf("reports/%s.%s", r.ReportID, out.Extension)
	info, err := m.artifacts.Put(ctx, key, out.Data, out.ContentType)
	if err != nil {
		return 0, nil, fmt.Errorf("store artifact: %w", err)
	}

	return len(ds.Rows), &FileDetails{
		FileName:    fileName(r.Name, ds.GeneratedAt, out.Extension),
		FileSize:    info.Size,
		FilePath:    info.Key,
		DownloadURL: fmt.Sprintf("%s/api/v1/reports/%s/file", m.publicURL, r.ReportID),
		ContentType: info.ContentType,
		Checksum:    info.Checksum,
	}, nil
}

// discard removes an artifact whose report never reached COMPLETED.
func (m *Manager) discard(ctx context.Context, file *FileDetails) {
	if err := m.artifacts.Delete(ctx, file.FilePath); err != nil {
		m.logger.Warn().Err(err).Str("key", file.FilePath).Msg("Failed to delete orphaned artifact")
	}
}

// stale reports whether a GENERATING report started more than twice the
// generation timeout before now, which no live run can exceed.
func (m *Manager) stale(r *Report, now time.Time) (started time.Time, ok bool) {
	started = r.CreatedAt
	if r.GenerationDetails.StartedAt != nil {
		started = *r.GenerationDetails.StartedAt
	}
	return started, !started.After(now.Add(-2 * m.timeout))
}

// interrupt fails a stale GENERATING report. Losing the race to another
// writer is not an error.
func (m *Manager) interrupt(ctx context.Context, r *Report, started time.Time) error {
	err := m.fail(ctx, r, started, m.now(), errors.New(interruptedMessage))
	if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (m *Manager) fail(ctx context.Context, r *Report, started, completed time.Time, cause error) error {
	elapsed := completed.Sub(started)
	err := m.store.Transition(ctx, r.ReportID, StatusGenerating, Transition{
		To: StatusFailed,
		Generation: GenerationDetails{
			StartedAt:       &started,
			CompletedAt:     &completed,
			ExecutionTimeMs: elapsed.Milliseconds(),
			ErrorMessage:    cause.Error(),
		},
		At: completed,
	})
	if err != nil {
		return fmt.Errorf("failed to mark report failed: %w", err)
	}

	metrics.RecordReportJob(string(r.Type), string(r.Format), "failed", elapsed)
	m.logger.Warn().Err(cause).Str("report_id", r.ReportID).Str("type", string(r.Type)).Msg("Report generation failed")
	m.audit(ctx, r, audit.ActionReportFailed, audit.SeverityMedium, elapsed, cause.Error(), nil)
	return nil
}

func (m *Manager) audit(ctx context.Context, r *Report, action audit.Action, sev audit.Severity, elapsed time.Duration, errMsg string, file *FileDetails) {
	if m.recorder == nil {
		return
	}
	rec := &audit.Record{
		ID:               uuid.New().String(),
		Action:           action,
		ActorID:          models.SystemActor.ID,
		ActorRole:        models.SystemActor.Role,
		ActorName:        models.SystemActor.Name,
		TargetType:       audit.TargetReport,
		TargetID:         r.ReportID,
		TargetIdentifier: r.Name,
		Details: audit.ExtraDetails(map[string]any{
			"type":        r.Type,
			"format":      r.Format,
			"generatedBy": r.GeneratedBy,
		}),
		Timestamp:       m.now(),
		Severity:        sev,
		Category:        audit.CategoryReporting,
		ExecutionTimeMs: elapsed.Milliseconds(),
		ErrorDetails:    errMsg,
	}
	if file != nil {
		rec.FileName = file.FileName
		rec.FileSize = file.FileSize
	}
	m.recorder.Record(ctx, rec)
}

// Recover re-enqueues every PENDING report and fails stale GENERATING
// reports. Call it when workers start; FailStale keeps running afterwards
// through the Reaper.
func (m *Manager) Recover(ctx context.Context) (requeued, interrupted int, err error) {
	pending, err := m.store.ByStatus(ctx, StatusPending)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pending reports: %w", err)
	}
	for i := range pending {
		if err := m.publish(ctx, &pending[i]); err != nil {
			m.logger.Warn().Err(err).Str("report_id", pending[i].ReportID).Msg("Failed to requeue pending report")
			continue
		}
		requeued++
	}

	interrupted, err = m.FailStale(ctx)
	if err != nil {
		return requeued, interrupted, err
	}

	if requeued > 0 {
		m.logger.Info().Int("requeued", requeued).Msg("Requeued pending reports")
	}
	return requeued, interrupted, nil
}

// FailStale marks GENERATING reports whose run started more than twice the
// generation timeout ago as FAILED. Reports still inside that window are
// left to their worker; a later pass picks them up if it never finishes.
func (m *Manager) FailStale(ctx context.Context) (int, error) {
	generating, err := m.store.ByStatus(ctx, StatusGenerating)
	if err != nil {
		return 0, fmt.Errorf("failed to list generating reports: %w", err)
	}

	interrupted := 0
	now := m.now()
	for i := range generating {
		r := &generating[i]
		started, ok := m.stale(r, now)
		if !ok {
			continue
		}
		if err := m.fail(ctx, r, started, now, errors.New(interruptedMessage)); err != nil {
			if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
				continue
			}
			return interrupted, err
		}
		interrupted++
	}

	if interrupted > 0 {
		m.logger.Info().Int("interrupted", interrupted).Msg("Failed stale generating reports")
	}
	return interrupted, nil
}

// Timeout is the generation timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// DueRecurring lists completed recurring reports whose next generation is
// due at now. Nothing triggers them; this is for an external scheduler.
func (m *Manager) DueRecurring(ctx context.Context, now time.Time) ([]Report, error) {
	return m.store.DueRecurring(ctx, now)
}

// Get returns a report visible to actor. Missing, deleted and forbidden
// reports all yield ErrNotFound.
func (m *Manager) Get(ctx context.Context, actor *models.Actor, id string) (*Report, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	r, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(actor, r) {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns one page of reports visible to actor.
func (m *Manager) List(ctx context.Context, actor *models.Actor, filter ListFilter, page models.Page) ([]Report, int64, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	filter.Viewer = actor
	return m.store.List(ctx, filter, page)
}

// Download records one download event and returns the file metadata.
func (m *Manager) Download(ctx context.Context, actor *models.Actor, id string, meta DownloadMeta) (*DownloadInfo, error) {
	r, err := m.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusCompleted || r.FileDetails == nil {
		return nil, fmt.Errorf("%w: status is %s", ErrNotReady, r.Status)
	}

	count, err := m.store.AppendDownload(ctx, id, DownloadEntry{
		UserID:       actor.ID,
		UserRole:     actor.Role,
		DownloadedAt: m.now(),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	metrics.ReportDownloadsTotal.Inc()

	return &DownloadInfo{ReportID: id, FileDetails: *r.FileDetails, DownloadCount: count}, nil
}

// File returns the artifact bytes of a completed report visible to actor.
func (m *Manager) File(ctx context.Context, actor *models.Actor, id string) (*Report, *artifact.Object, error) {
	r, err := m.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if r.Status != StatusCompleted || r.FileDetails == nil {
		return nil, nil, fmt.Errorf("%w: status is %s", ErrNotReady, r.Status)
	}
	obj, err := m.artifacts.Get(ctx, r.FileDetails.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load report file: %w", err)
	}
	return r, obj, nil
}

// UpdateAccess replaces the access control. Only the owner may do this.
func (m *Manager) UpdateAccess(ctx context.Context, actor *models.Actor, id string, upd *AccessUpdate) (*Report, error) {
	registerValidators()
	if verr := validation.ValidateStruct(upd); verr != nil {
		return nil, validationError(verr)
	}

	r, err := m.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(actor, r) {
		return nil, ErrNotOwner
	}

	ac, err := normalizeAccess(upd.Roles, upd.Users, upd.IsPublic)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateAccess(ctx, id, ac, m.now()); err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// Delete soft-deletes a report. Only the owner may do this. Audit records
// and the stored artifact are kept.
func (m *Manager) Delete(ctx context.Context, actor *models.Actor, id string) error {
	r, err := m.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !IsOwner(actor, r) {
		return ErrNotOwner
	}
	return m.store.SoftDelete(ctx, id, actor.ID, m.now())
}

// fileName builds "<slug>-<yyyymmdd>.<ext>" from the report name.
func fileName(name string, at time.Time, ext string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "report"
	}
	if runes := []rune(slug); len(runes) > 64 {
		slug = strings.TrimSuffix(string(runes[:64]), "-")
	}
	return fmt.Sprintf("%s-%s.%s", slug, at.UTC().Format("20060102"), ext)
}
